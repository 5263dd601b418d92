package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campus-hub/campushub-lms/internal/assess"
)

// writeErr translates the assess error taxonomy into a status and a JSON
// {message} body. Every rejection names the violated rule; only unexpected
// store errors fall through to 500.
func writeErr(w http.ResponseWriter, err error) {
	var windowErr *assess.WindowNotOpenError
	var validationErr *assess.ValidationError

	switch {
	case errors.Is(err, assess.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": err.Error()})
	case errors.Is(err, assess.ErrNoAttempt):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "You have not attempted this quiz."})
	case errors.Is(err, assess.ErrNotPublished):
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Results for this quiz have not been published yet."})
	case errors.Is(err, assess.ErrDeadlinePassed):
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "The submission deadline has passed."})
	case errors.Is(err, assess.ErrDuplicateAttempt):
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "You have already submitted this."})
	case errors.As(err, &windowErr):
		writeJSON(w, http.StatusForbidden, map[string]string{"message": windowErr.Error() + "."})
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": validationErr.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"message": msg})
}
