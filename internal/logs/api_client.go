package logs

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"wesline/internal/api"
	"wesline/internal/daemonctl"
)

// ErrAPIUnavailable means no daemon answered the log stream request.
var ErrAPIUnavailable = errors.New("log API unavailable")

// StreamClient pages through the daemon's in-memory log ring via GET /logs.
type StreamClient struct {
	ctl *daemonctl.Client
}

// StreamQuery mirrors the /logs query parameters.
type StreamQuery struct {
	Since     uint64
	Limit     int
	Follow    bool
	Tail      bool
	Component string
	RequestID string
}

func (q StreamQuery) values() url.Values {
	v := url.Values{}
	set := func(key, value string, ok bool) {
		if ok {
			v.Set(key, value)
		}
	}
	set("since", strconv.FormatUint(q.Since, 10), q.Since > 0)
	set("limit", strconv.Itoa(q.Limit), q.Limit > 0)
	set("follow", "1", q.Follow)
	set("tail", "1", q.Tail)
	set("component", strings.TrimSpace(q.Component), strings.TrimSpace(q.Component) != "")
	set("request_id", strings.TrimSpace(q.RequestID), strings.TrimSpace(q.RequestID) != "")
	return v
}

// NewStreamClient returns a client for the daemon at bind, or nil when bind
// is empty. Requests carry no timeout because follow mode long-polls; the
// caller's context bounds them.
func NewStreamClient(bind, token string) (*StreamClient, error) {
	if strings.TrimSpace(bind) == "" {
		return nil, nil
	}
	ctl, err := daemonctl.NewClient(bind, token, daemonctl.WithoutTimeout())
	if err != nil {
		return nil, err
	}
	return &StreamClient{ctl: ctl}, nil
}

// Fetch returns one page of events.
func (c *StreamClient) Fetch(ctx context.Context, q StreamQuery) (api.LogStreamResponse, error) {
	var page api.LogStreamResponse
	if c == nil {
		return page, ErrAPIUnavailable
	}
	if err := c.ctl.GetJSON(ctx, "/logs", q.values(), &page); err != nil {
		if daemonctl.IsUnavailable(err) {
			return api.LogStreamResponse{}, errors.Join(ErrAPIUnavailable, err)
		}
		return api.LogStreamResponse{}, err
	}
	return page, nil
}

// IsAPIUnavailable reports whether err means the daemon could not be reached.
func IsAPIUnavailable(err error) bool {
	return errors.Is(err, ErrAPIUnavailable) || daemonctl.IsUnavailable(err)
}
