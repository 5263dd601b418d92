package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campus-hub/campushub-lms/internal/assess"
	"github.com/campus-hub/campushub-lms/internal/rbac"
)

// POST /api/student/attendance/{scheduleID}/mark
func MarkAttendanceHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := rbac.SubjectFromContext(r.Context())
		_, err := svc.MarkAttendance(r.Context(), chi.URLParam(r, "scheduleID"), studentID)
		if err != nil {
			if errors.Is(err, assess.ErrDuplicateAttempt) {
				badRequest(w, "Attendance already marked for this class.")
				return
			}
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"message": "Attendance marked successfully"})
	}
}

// GET /api/student/attendance/active
// Returns the first schedule whose marking window is open and unmarked, or
// JSON null when there is nothing to mark.
func ActiveAttendanceHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := rbac.SubjectFromContext(r.Context())
		sc, err := svc.ActiveAttendance(r.Context(), studentID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sc)
	}
}

// GET /api/student/attendance/summary
func AttendanceSummaryHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := rbac.SubjectFromContext(r.Context())
		sum, err := svc.AttendanceSummaryFor(r.Context(), studentID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}
