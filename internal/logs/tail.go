package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// TailOptions selects which part of a log file Tail returns.
//
// A negative Offset asks for the last Limit matching lines (Limit <= 0 only
// positions at the end). A non-negative Offset returns every matching line
// after it. With Follow and a positive Wait, Tail polls until at least one
// line arrives or Wait elapses.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
	Match  func(line string) bool
}

// TailResult holds the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

const followPoll = 250 * time.Millisecond

// Tail reads lines from the JSON log at path. A missing file yields no lines
// and offset zero. When the file shrinks below Offset it was rotated or
// truncated, and reading restarts from the beginning.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	start, keep := opts.Offset, 0
	if start < 0 {
		start, keep = 0, opts.Limit
		if keep <= 0 {
			size, err := fileSize(path)
			return TailResult{Offset: size}, err
		}
	}

	var deadline time.Time
	if opts.Follow && opts.Wait > 0 {
		deadline = time.Now().Add(opts.Wait)
	}
	for {
		lines, next, err := scanFrom(path, start, keep, opts.Match)
		if err != nil || len(lines) > 0 || deadline.IsZero() || time.Now().After(deadline) {
			return TailResult{Lines: lines, Offset: next}, err
		}
		start, keep = next, 0
		select {
		case <-ctx.Done():
			return TailResult{Offset: next}, ctx.Err()
		case <-time.After(followPoll):
		}
	}
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("stat log file: %w", err)
	case info.IsDir():
		return 0, fmt.Errorf("log path %q is a directory", path)
	}
	return info.Size(), nil
}

// scanFrom reads matching lines after offset. keep > 0 retains only the last
// keep lines. It returns the offset just past the last complete line so a
// line still being written is picked up by the next call.
func scanFrom(path string, offset int64, keep int, match func(string) bool) ([]string, int64, error) {
	size, err := fileSize(path)
	if err != nil || size == 0 {
		return nil, 0, err
	}
	if offset > size {
		offset = 0
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	var lines []string
	pos := offset
	for {
		raw, err := reader.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			// Overlong line: skip it rather than stall the reader.
			n, skipErr := discardLine(reader)
			pos += int64(len(raw)) + n
			if skipErr != nil {
				break
			}
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, offset, fmt.Errorf("read log file: %w", err)
			}
			break
		}
		pos += int64(len(raw))
		line := string(raw[:len(raw)-1])
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		if match != nil && !match(line) {
			continue
		}
		lines = append(lines, line)
		if keep > 0 && len(lines) > 2*keep {
			lines = append(lines[:0], lines[len(lines)-keep:]...)
		}
	}
	if keep > 0 && len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	return lines, pos, nil
}

func discardLine(r *bufio.Reader) (int64, error) {
	var n int64
	for {
		chunk, err := r.ReadSlice('\n')
		n += int64(len(chunk))
		if !errors.Is(err, bufio.ErrBufferFull) {
			return n, err
		}
	}
}
