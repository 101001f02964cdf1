package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"wesline/internal/preflight"
)

type level int

const (
	levelInfo level = iota
	levelOK
	levelWarn
	levelError
)

var levelStyles = map[level]struct {
	tag    string
	colors text.Colors
}{
	levelInfo:  {"INFO", text.Colors{text.FgBlue}},
	levelOK:    {"OK", text.Colors{text.FgGreen}},
	levelWarn:  {"WARN", text.Colors{text.FgYellow}},
	levelError: {"ERROR", text.Colors{text.FgRed, text.Bold}},
}

// statusPrinter writes the aligned "label: [TAG] detail" lines shared by
// status and preflight.
type statusPrinter struct {
	out   io.Writer
	color bool
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{out: out, color: shouldColorize(out)}
}

func (p *statusPrinter) section(title string) {
	heading := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(heading))
	if p.color {
		heading, rule = text.FgCyan.Sprint(heading), text.FgCyan.Sprint(rule)
	}
	fmt.Fprintln(p.out, heading)
	fmt.Fprintln(p.out, rule)
}

func (p *statusPrinter) line(label string, lvl level, detail string) {
	style := levelStyles[lvl]
	tag := "[" + style.tag + "]"
	if p.color {
		tag = style.colors.Sprint(tag)
	}
	if detail != "" {
		tag += " " + detail
	}
	fmt.Fprintf(p.out, "  %-20s %s\n", label+":", tag)
}

func (p *statusPrinter) check(result preflight.Result) {
	lvl := levelOK
	if !result.Passed {
		lvl = levelError
	}
	p.line(result.Name, lvl, result.Detail)
}

func (p *statusPrinter) blank() { fmt.Fprintln(p.out) }

// shouldColorize honors NO_COLOR and only colors real terminals.
func shouldColorize(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
