package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wesline/internal/api"
	"wesline/internal/logging"
)

// maxFollowWait bounds a follow request below the server write timeout.
const maxFollowWait = 25 * time.Second

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeJSON(w, http.StatusOK, api.LogStreamResponse{Events: []api.LogEvent{}})
		return
	}

	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = 200
	}
	follow := truthy(query.Get("follow"))
	tail := truthy(query.Get("tail"))
	component := strings.TrimSpace(query.Get("component"))
	requestID := strings.TrimSpace(query.Get("request_id"))

	var (
		events []logging.LogEvent
		next   uint64
	)
	if tail && since == 0 && !follow {
		events, next = s.hub.Tail(limit)
	} else {
		ctx := r.Context()
		if follow {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, maxFollowWait)
			defer cancel()
		}
		var err error
		events, next, err = s.hub.Fetch(ctx, since, limit, follow)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.writeServiceError(w, r, err)
			return
		}
		if r.Context().Err() != nil {
			return
		}
	}

	filtered := make([]api.LogEvent, 0, len(events))
	for _, evt := range api.FromLogEvents(events) {
		if component != "" && !strings.EqualFold(component, evt.Component) {
			continue
		}
		if requestID != "" && requestID != evt.RequestID {
			continue
		}
		filtered = append(filtered, evt)
	}
	writeJSON(w, http.StatusOK, api.LogStreamResponse{Events: filtered, Next: next})
}

func truthy(value string) bool {
	return value == "1" || strings.EqualFold(value, "true")
}
