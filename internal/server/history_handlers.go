package server

import (
	"net/http"
	"strconv"
	"strings"

	"wesline/internal/api"
	"wesline/internal/history"
	"wesline/internal/services"
)

func (s *Server) historyStore(w http.ResponseWriter, r *http.Request) (*history.Store, bool) {
	if s.history == nil || !s.cfg.History.Enabled {
		s.writeServiceError(w, r, services.Wrap(services.ErrConfiguration, "history", "", "history is disabled", nil))
		return nil, false
	}
	return s.history, true
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	store, ok := s.historyStore(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	kind, err := history.ParseKind(query.Get("kind"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	limit := 0
	if value := strings.TrimSpace(query.Get("limit")); value != "" {
		limit, err = strconv.Atoi(value)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}
	entries, err := store.List(r.Context(), history.Filter{Kind: kind, Limit: limit})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*history.Entry{}
	}
	writeJSON(w, http.StatusOK, api.HistoryListResponse{Entries: entries})
}

func (s *Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	store, ok := s.historyStore(w, r)
	if !ok {
		return
	}
	entry, err := store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	store, ok := s.historyStore(w, r)
	if !ok {
		return
	}
	if err := store.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
