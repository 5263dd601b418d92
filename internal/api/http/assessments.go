package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campus-hub/campushub-lms/internal/assess"
	"github.com/campus-hub/campushub-lms/internal/rbac"
)

type createAssessmentReq struct {
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Deadline    time.Time `json:"deadline" validate:"required"`
	BatchID     string    `json:"batch" validate:"required"`
}

// POST /api/admin/assessments
func CreateAssessmentHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAssessmentReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}
		a, err := svc.CreateAssessment(r.Context(), assess.Assessment{
			Name:        req.Name,
			Description: req.Description,
			Deadline:    req.Deadline.UTC(),
			BatchID:     req.BatchID,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// GET /api/admin/assessments
func AdminAssessmentsHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.AdminAssessments(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /api/admin/assessments/{assessmentID}/submissions
func AssessmentSubmissionsHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := svc.AssessmentSubmissions(r.Context(), chi.URLParam(r, "assessmentID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

// DELETE /api/admin/assessments/{assessmentID}
func DeleteAssessmentHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteAssessment(r.Context(), chi.URLParam(r, "assessmentID")); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Assessment and all its submissions have been permanently removed.",
		})
	}
}

// GET /api/student/assessments
func StudentAssessmentsHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := rbac.SubjectFromContext(r.Context())
		list, err := svc.ActiveAssessmentsFor(r.Context(), studentID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

type submitAssessmentReq struct {
	GithubLink  string `json:"githubLink" validate:"required,url"`
	Description string `json:"description" validate:"required"`
}

// POST /api/student/assessments/{assessmentID}/submit
func SubmitAssessmentHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := rbac.SubjectFromContext(r.Context())

		var req submitAssessmentReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}

		sub, err := svc.SubmitAssessment(r.Context(), chi.URLParam(r, "assessmentID"), studentID, req.GithubLink, req.Description)
		if err != nil {
			if errors.Is(err, assess.ErrDuplicateAttempt) {
				badRequest(w, "You have already submitted this assessment.")
				return
			}
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"message":    "Assessment submitted successfully!",
			"submission": sub,
		})
	}
}
