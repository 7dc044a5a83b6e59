package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"gatherly.org/internal/audit"
	"gatherly.org/internal/auth"
	"gatherly.org/internal/event"
	"gatherly.org/internal/policy"
	"gatherly.org/internal/user"
)

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorBody{
		Error:     msg,
		RequestID: audit.RequestIDFromContext(r.Context()),
	})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, policy.ErrNotAuthenticated):
		writeError(w, r, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, policy.ErrWrongRole), errors.Is(err, policy.ErrNotOwner):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, policy.ErrNotFound), errors.Is(err, event.ErrNotFound), errors.Is(err, user.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, event.ErrAlreadyRegistered), errors.Is(err, event.ErrNotRegistered):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, user.ErrUsernameTaken):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, event.ErrInvalidInput), errors.Is(err, user.ErrInvalidInput), errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON rejects unknown fields and trailing garbage so that malformed
// clients fail loudly instead of silently dropping data.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected trailing data")
	}
	_, _ = io.Copy(io.Discard, r.Body)
	return nil
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "not found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if a.Ready != nil {
		if err := a.Ready(); err != nil {
			writeError(w, r, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":    a.Version,
		"commit":     a.Commit,
		"uptime_sec": int64(time.Since(a.startedAt).Seconds()),
	})
}
