package server

import (
	"net/http"
	"strings"

	"wesline/internal/api"
	"wesline/internal/history"
	"wesline/internal/notation"
	"wesline/internal/services"
)

func (s *Server) handleGenerateLine(w http.ResponseWriter, r *http.Request) {
	var req api.GenerateLineRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Chord) == "" {
		s.writeServiceError(w, r, services.Wrap(services.ErrValidation, "server", "generate line", "chord is required", nil))
		return
	}

	line, err := s.api.GenerateLine(r.Context(), req.LineRequest)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	chord := line.Chord
	if chord == "" {
		chord = req.Chord
	}
	opts := req.Options(s.cfg.Notation)
	if opts.Title == "" {
		opts.Title = "Bebop Line over " + chord
	}
	rendered, err := notationLine(line.Notes, chord, opts)
	if err != nil {
		// The upstream answered with notes we cannot spell.
		writeError(w, http.StatusBadGateway, "render upstream notes: "+err.Error())
		return
	}

	resp := api.GenerateLineResponse{
		Notes:    line.Notes,
		Chord:    chord,
		Patterns: line.Patterns,
		Warnings: line.Warnings,
		ABC:      rendered.abc,
		Upstream: line.Upstream,
	}
	if wantRecord(req.Record) {
		resp.ID = s.record(r.Context(), history.Entry{
			Kind:     history.KindLine,
			Title:    rendered.title,
			Request:  marshalRaw(req),
			Result:   marshalRaw(line),
			Notes:    line.Notes,
			ABC:      rendered.abc,
			Upstream: line.Upstream,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValidateCounterpoint(w http.ResponseWriter, r *http.Request) {
	var req api.ValidateCounterpointRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if len(req.CantusFirmus) == 0 || len(req.Counterpoint) == 0 {
		s.writeServiceError(w, r, services.Wrap(services.ErrValidation, "server", "validate counterpoint", "cantus_firmus and counterpoint are required", nil))
		return
	}
	if req.Species == 0 {
		req.Species = 1
	}
	if err := notation.CheckLengths(len(req.CantusFirmus), len(req.Counterpoint), req.Species); err != nil {
		s.writeServiceError(w, r, invalid("validate counterpoint", err))
		return
	}

	result, err := s.api.ValidateCounterpoint(r.Context(), req.CounterpointRequest)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	opts := req.Options(s.cfg.Notation)
	abc, intervals, err := renderCounterpoint(req.CantusFirmus, req.Counterpoint, req.Species, result.Errors, opts)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := api.ValidateCounterpointResponse{
		Valid:     result.Valid,
		Errors:    result.Errors,
		Intervals: intervals,
		ABC:       abc,
		Upstream:  result.Upstream,
	}
	if wantRecord(req.Record) {
		valid := result.Valid
		resp.ID = s.record(r.Context(), history.Entry{
			Kind:     history.KindCounterpoint,
			Title:    titleLine(abc),
			Request:  marshalRaw(req),
			Result:   marshalRaw(result),
			Notes:    req.Counterpoint,
			ABC:      abc,
			Upstream: result.Upstream,
			Valid:    &valid,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	patterns, err := s.api.Patterns(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.PatternsResponse{Patterns: patterns, Upstream: s.api.Name()})
}

func wantRecord(flag *bool) bool {
	return flag == nil || *flag
}

// titleLine returns the T: header of a rendered tune.
func titleLine(abc string) string {
	for _, line := range strings.Split(abc, "\n") {
		if title, ok := strings.CutPrefix(line, "T:"); ok {
			return strings.TrimSpace(title)
		}
	}
	return ""
}
