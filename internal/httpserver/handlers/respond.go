package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/followup/internal/domain"
	"github.com/MrSnakeDoc/followup/internal/httpserver/deps"
	"github.com/MrSnakeDoc/followup/internal/logger"
	"github.com/MrSnakeDoc/followup/internal/reminder"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps core errors to HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRecord), errors.Is(err, domain.ErrInvalidAction):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrStorageUnavailable), errors.Is(err, reminder.ErrServiceStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrTimerFacility):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// fail logs server-side failures and writes the mapped status
func fail(w http.ResponseWriter, r *http.Request, d deps.Deps, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		d.Logger.Error(msg,
			logger.String("path", r.URL.Path),
			logger.Error(err))
	}
	writeError(w, status, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
