package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/screenquest/screenquest/internal/store"
	"github.com/screenquest/screenquest/internal/task"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func parseAssignmentID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("id"))
}

// writeTaskError maps the lifecycle error taxonomy onto HTTP statuses.
// Everything in the taxonomy is an expected condition; only unrecognized
// errors are logged and reported as 500s.
func writeTaskError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, task.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, task.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, task.ErrInvalidInput),
		errors.Is(err, task.ErrMissingReason),
		errors.Is(err, task.ErrIncompleteSubmission),
		errors.Is(err, store.ErrInvalidAmount):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrInsufficientFunds):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		logger.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
