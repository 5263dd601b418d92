package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campus-hub/campushub-lms/internal/assess"
)

type questionReq struct {
	Text          string   `json:"questionText" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectAnswer string   `json:"correctAnswer" validate:"required"`
	Marks         int      `json:"marks" validate:"gt=0"`
}

type createQuizReq struct {
	Title        string        `json:"title" validate:"required"`
	DepartmentID string        `json:"department" validate:"required"`
	BatchID      string        `json:"batch" validate:"required"`
	StartTime    time.Time     `json:"startTime" validate:"required"`
	EndTime      time.Time     `json:"endTime" validate:"required"`
	Questions    []questionReq `json:"questions" validate:"required,min=1,dive"`
}

func toQuestions(reqs []questionReq) []assess.Question {
	out := make([]assess.Question, 0, len(reqs))
	for _, q := range reqs {
		out = append(out, assess.Question{
			Text:          q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Marks:         q.Marks,
		})
	}
	return out
}

// POST /api/admin/quizzes
func CreateQuizHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createQuizReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}
		q, err := svc.CreateQuiz(r.Context(), assess.Quiz{
			Title:        req.Title,
			DepartmentID: req.DepartmentID,
			BatchID:      req.BatchID,
			StartTime:    req.StartTime.UTC(),
			EndTime:      req.EndTime.UTC(),
			Questions:    toQuestions(req.Questions),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

// GET /api/admin/quizzes
func AdminQuizzesHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.AdminQuizzes(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /api/admin/quizzes/{quizID}
func GetQuizHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := svc.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

type updateQuizReq struct {
	Title        *string       `json:"title"`
	DepartmentID *string       `json:"department"`
	BatchID      *string       `json:"batch"`
	StartTime    *time.Time    `json:"startTime"`
	EndTime      *time.Time    `json:"endTime"`
	Questions    []questionReq `json:"questions"`
}

// PUT /api/admin/quizzes/{quizID} — absent fields keep their stored value.
func UpdateQuizHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateQuizReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		patch := assess.QuizPatch{
			Title:        req.Title,
			DepartmentID: req.DepartmentID,
			BatchID:      req.BatchID,
			StartTime:    req.StartTime,
			EndTime:      req.EndTime,
		}
		if req.Questions != nil {
			patch.Questions = toQuestions(req.Questions)
		}
		q, err := svc.UpdateQuiz(r.Context(), chi.URLParam(r, "quizID"), patch)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// DELETE /api/admin/quizzes/{quizID} — quiz and all its submissions go
// together, or not at all.
func DeleteQuizHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteQuiz(r.Context(), chi.URLParam(r, "quizID")); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Quiz and all its submissions have been permanently removed.",
		})
	}
}

type publishReq struct {
	Publish bool `json:"publish"`
}

// PUT /api/admin/quizzes/{quizID}/publish
func PublishResultsHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req publishReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := svc.PublishResults(r.Context(), chi.URLParam(r, "quizID"), req.Publish); err != nil {
			writeErr(w, err)
			return
		}
		verb := "unpublished"
		if req.Publish {
			verb = "published"
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Quiz results have been " + verb + "."})
	}
}

// GET /api/admin/quizzes/{quizID}/submissions
func QuizSubmissionsHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.QuizSubmissions(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
