package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"bericht/internal/api"
	"bericht/internal/logging"
	"bericht/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	requestID, _ := services.RequestIDFromContext(r.Context())
	writeJSON(w, status, api.ErrorResponse{Error: message, RequestID: requestID})
}

// writeServiceError maps tagged service errors onto a status code. Internal
// detail is only exposed for client errors.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := services.HTTPStatus(err)
	message := http.StatusText(status)
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrConfiguration):
		message = err.Error()
	case status >= http.StatusInternalServerError:
		logging.ErrorWithContext(r.Context(), s.logger, operation+" failed", "http_upstream_failure",
			logging.Error(err),
			logging.Int("status", status),
			logging.String(logging.FieldErrorHint, "check the upstream service"),
		)
	}
	writeError(w, r, status, message)
}
