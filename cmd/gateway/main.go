package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/campus-hub/campushub-lms/internal/activity"
	api "github.com/campus-hub/campushub-lms/internal/api/http"
	"github.com/campus-hub/campushub-lms/internal/assess"
	auth "github.com/campus-hub/campushub-lms/internal/auth/middleware"
	"github.com/campus-hub/campushub-lms/internal/config"
	"github.com/campus-hub/campushub-lms/internal/db"
	"github.com/campus-hub/campushub-lms/internal/rbac"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	store := assess.NewSQLStore(dbh, cfg.DBDriver)
	events := activity.NewRepo(dbh)
	svc := assess.NewService(store, events, time.Now)

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		if cfg.AttachRoleFromDB {
			pr.Use(auth.AttachRoleFromDB(dbh, cfg.Mode == config.ModeOffline))
		}

		pr.Route("/api/student", func(sr chi.Router) {
			sr.With(rbac.Require("quiz:list-own")).
				Get("/quizzes", api.StudentQuizzesHandler(svc))
			sr.With(rbac.Require("quiz:attempt")).
				Get("/quizzes/{quizID}", api.QuizForAttemptHandler(svc))
			sr.With(rbac.Require("quiz:attempt")).
				Post("/quizzes/{quizID}/submit", api.SubmitQuizHandler(svc))
			sr.With(rbac.Require("quiz:result-own")).
				Get("/quizzes/{quizID}/result", api.QuizResultHandler(svc))

			sr.With(rbac.Require("assessment:list-own")).
				Get("/assessments", api.StudentAssessmentsHandler(svc))
			sr.With(rbac.Require("assessment:submit")).
				Post("/assessments/{assessmentID}/submit", api.SubmitAssessmentHandler(svc))

			sr.With(rbac.Require("attendance:view-own")).
				Get("/attendance/active", api.ActiveAttendanceHandler(svc))
			sr.With(rbac.Require("attendance:view-own")).
				Get("/attendance/summary", api.AttendanceSummaryHandler(svc))
			sr.With(rbac.Require("attendance:mark")).
				Post("/attendance/{scheduleID}/mark", api.MarkAttendanceHandler(svc))

			sr.With(rbac.Require("user:change_password")).
				Post("/password", api.ChangePasswordHandler(dbh))
		})

		pr.Route("/api/admin", func(ar chi.Router) {
			ar.Use(rbac.Require("admin:manage"))

			ar.Post("/quizzes", api.CreateQuizHandler(svc))
			ar.Get("/quizzes", api.AdminQuizzesHandler(svc))
			ar.Get("/quizzes/{quizID}", api.GetQuizHandler(svc))
			ar.Put("/quizzes/{quizID}", api.UpdateQuizHandler(svc))
			ar.Delete("/quizzes/{quizID}", api.DeleteQuizHandler(svc))
			ar.Put("/quizzes/{quizID}/publish", api.PublishResultsHandler(svc))
			ar.Get("/quizzes/{quizID}/submissions", api.QuizSubmissionsHandler(svc))

			ar.Post("/assessments", api.CreateAssessmentHandler(svc))
			ar.Get("/assessments", api.AdminAssessmentsHandler(svc))
			ar.Get("/assessments/{assessmentID}/submissions", api.AssessmentSubmissionsHandler(svc))
			ar.Delete("/assessments/{assessmentID}", api.DeleteAssessmentHandler(svc))

			ar.Post("/schedules", api.CreateScheduleHandler(svc))
			ar.Get("/schedules", api.ListSchedulesHandler(svc))
			ar.Put("/schedules/{scheduleID}", api.UpdateScheduleHandler(svc))
			ar.Delete("/schedules/{scheduleID}", api.DeleteScheduleHandler(svc))

			ar.Post("/students/bulk", api.BulkUpsertStudentsHandler(dbh))
			ar.Get("/students", api.ListStudentsHandler(dbh))

			ar.Post("/departments", api.CreateDepartmentHandler(dbh))
			ar.Get("/departments", api.ListDepartmentsHandler(dbh))
			ar.Put("/departments/{departmentID}", api.UpdateDepartmentHandler(dbh))
			ar.Delete("/departments/{departmentID}", api.DeleteDepartmentHandler(dbh))

			ar.Post("/batches", api.CreateBatchHandler(dbh))
			ar.Get("/batches", api.ListBatchesHandler(dbh))
			ar.Put("/batches/{batchID}", api.UpdateBatchHandler(dbh))
			ar.Delete("/batches/{batchID}", api.DeleteBatchHandler(dbh))

			ar.Get("/activity", api.RecentActivityHandler(events))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
