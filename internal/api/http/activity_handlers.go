package http

import (
	"net/http"

	"github.com/campus-hub/campushub-lms/internal/activity"
)

// GET /api/admin/activity?limit=50
func RecentActivityHandler(repo *activity.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		events, err := repo.Recent(r.Context(), limit)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}
