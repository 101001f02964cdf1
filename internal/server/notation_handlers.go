package server

import (
	"context"
	"encoding/json"
	"net/http"

	"wesline/internal/api"
	"wesline/internal/history"
	"wesline/internal/logging"
	"wesline/internal/notation"
)

func (s *Server) handleRenderLine(w http.ResponseWriter, r *http.Request) {
	var req api.LineRenderRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	line, err := notationLine(req.Notes, req.Chord, req.Options(s.cfg.Notation))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NotationResponse{ABC: line.abc, Notes: line.notes})
}

func (s *Server) handleRenderCounterpoint(w http.ResponseWriter, r *http.Request) {
	var req api.CounterpointRenderRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	abc, intervals, err := renderCounterpoint(req.CantusFirmus, req.Counterpoint, req.Species, req.Violations, req.Options(s.cfg.Notation))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NotationResponse{ABC: abc, Intervals: intervals})
}

func (s *Server) handleRenderTab(w http.ResponseWriter, r *http.Request) {
	var req api.TabRenderRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	tuning, err := notation.ParseTuning(req.Tuning)
	if err != nil {
		s.writeServiceError(w, r, invalid("tuning", err))
		return
	}
	tune, notes, err := notation.TabTune(req.Positions, tuning, req.Options(s.cfg.Notation))
	if err != nil {
		s.writeServiceError(w, r, invalid("tab", err))
		return
	}
	abc, err := tune.Render()
	if err != nil {
		s.writeServiceError(w, r, invalid("render", err))
		return
	}
	ascii, err := notation.RenderASCIITab(req.Positions, tuning)
	if err != nil {
		s.writeServiceError(w, r, invalid("tab", err))
		return
	}
	names := make([]string, len(notes))
	for i, n := range notes {
		names[i] = n.String()
	}

	resp := api.NotationResponse{ABC: abc, Notes: names, ASCII: ascii, Positions: req.Positions}
	if req.Record {
		resp.ID = s.record(r.Context(), history.Entry{
			Kind:    history.KindTab,
			Title:   tune.Title,
			Request: marshalRaw(req),
			Notes:   names,
			ABC:     abc,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type renderedLine struct {
	abc   string
	title string
	notes []string
}

func notationLine(notes []string, chord string, opts notation.Options) (renderedLine, error) {
	tune, err := notation.LineTune(notes, chord, opts)
	if err != nil {
		return renderedLine{}, invalid("line", err)
	}
	abc, err := tune.Render()
	if err != nil {
		return renderedLine{}, invalid("render", err)
	}
	return renderedLine{abc: abc, title: tune.Title, notes: notation.NoteNames(tune.Voices[0].Events)}, nil
}

// renderCounterpoint builds the annotated two-voice tune and the interval
// table shared by /notation/counterpoint and /counterpoint/validate.
func renderCounterpoint(cf, cp []string, species int, violations []notation.Violation, opts notation.Options) (string, []notation.Interval, error) {
	tune, err := notation.CounterpointTune(cf, cp, species, violations, opts)
	if err != nil {
		return "", nil, invalid("counterpoint", err)
	}
	abc, err := tune.Render()
	if err != nil {
		return "", nil, invalid("render", err)
	}
	intervals, err := notation.CounterpointIntervals(cf, cp, species)
	if err != nil {
		return "", nil, invalid("counterpoint", err)
	}
	return abc, intervals, nil
}

// record stores an entry when history is enabled. Failures are logged and
// never fail the request; the returned ID is empty in that case.
func (s *Server) record(ctx context.Context, entry history.Entry) string {
	if s.history == nil || !s.cfg.History.Enabled {
		return ""
	}
	stored, err := s.history.Record(ctx, entry)
	if err != nil {
		logging.WithContext(ctx, s.logger).Warn("record history failed",
			logging.String("kind", string(entry.Kind)),
			logging.Error(err),
		)
		return ""
	}
	return stored.ID
}

func marshalRaw(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
