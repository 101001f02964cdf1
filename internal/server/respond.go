package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"wesline/internal/api"
	"wesline/internal/logging"
	"wesline/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: message})
}

// writeServiceError maps err to a status with services.HTTPStatus. Server
// side failures are logged; client mistakes are not.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logging.WithContext(r.Context(), s.logger).Warn("request failed",
			logging.Path(r.URL.Path),
			logging.Status(status),
			logging.Error(err),
		)
	}
	writeError(w, status, err.Error())
}

// decodeJSON reads a bounded JSON body into dst.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, s.cfg.Upstream.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return services.Wrap(services.ErrValidation, "server", "decode", "request body too large", nil)
		case errors.Is(err, io.EOF):
			return services.Wrap(services.ErrValidation, "server", "decode", "request body is required", nil)
		default:
			return services.Wrap(services.ErrValidation, "server", "decode", "invalid json", err)
		}
	}
	return nil
}

// invalid tags a notation error as a client mistake.
func invalid(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, services.ErrValidation) {
		return err
	}
	return services.Wrap(services.ErrValidation, "notation", op, "", err)
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logging.NewNop()
}
