package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campus-hub/campushub-lms/internal/assess"
	"github.com/campus-hub/campushub-lms/internal/rbac"
)

var validate = validator.New()

// GET /api/student/quizzes
func StudentQuizzesHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := rbac.SubjectFromContext(r.Context())
		cat, err := svc.StudentQuizzes(r.Context(), studentID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cat)
	}
}

// GET /api/student/quizzes/{quizID}
func QuizForAttemptHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := rbac.SubjectFromContext(r.Context())
		q, err := svc.QuizForAttempt(r.Context(), chi.URLParam(r, "quizID"), studentID)
		if err != nil {
			if errors.Is(err, assess.ErrDuplicateAttempt) {
				badRequest(w, "You have already submitted this quiz.")
				return
			}
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// An empty or absent answers list is a valid submission scoring zero.
type submitQuizReq struct {
	Answers []answerReq `json:"answers" validate:"dive"`
}

type answerReq struct {
	QuestionID     string `json:"questionId" validate:"required"`
	SelectedAnswer string `json:"selectedAnswer" validate:"required"`
}

// POST /api/student/quizzes/{quizID}/submit
func SubmitQuizHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := rbac.SubjectFromContext(r.Context())

		var req submitQuizReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}

		answers := make([]assess.Answer, 0, len(req.Answers))
		for _, a := range req.Answers {
			answers = append(answers, assess.Answer{QuestionID: a.QuestionID, SelectedAnswer: a.SelectedAnswer})
		}

		result, err := svc.SubmitQuiz(r.Context(), chi.URLParam(r, "quizID"), studentID, answers)
		if err != nil {
			if errors.Is(err, assess.ErrDuplicateAttempt) {
				badRequest(w, "You have already submitted this quiz.")
				return
			}
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"message":  "Quiz submitted successfully!",
			"resultId": result.ID,
			"score":    result.Score,
		})
	}
}

// GET /api/student/quizzes/{quizID}/result
func QuizResultHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := rbac.SubjectFromContext(r.Context())
		res, err := svc.ResultForStudent(r.Context(), chi.URLParam(r, "quizID"), studentID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
