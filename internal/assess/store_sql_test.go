package assess

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/campus-hub/campushub-lms/internal/db"
)

var memDBCounter int

// newSQLiteStore opens a fresh in-memory sqlite database with the real schema.
func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	memDBCounter++
	dsn := fmt.Sprintf("file:assess_test_%d?mode=memory&cache=shared", memDBCounter)
	dbh, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	dbh.SetMaxOpenConns(1)
	t.Cleanup(func() { dbh.Close() })
	if err := db.EnsureSchema(context.Background(), dbh, db.DriverSQLite); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return NewSQLStore(dbh, "sqlite")
}

func sqlSeedQuiz(t *testing.T, st *SQLStore, id string) Quiz {
	t.Helper()
	q := Quiz{
		ID: id, Title: "Midterm", DepartmentID: "cse", BatchID: "2025",
		StartTime: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC),
		Questions: testQuestions,
	}
	if err := st.PutQuiz(context.Background(), q); err != nil {
		t.Fatalf("put quiz: %v", err)
	}
	return q
}

func TestSQLStoreQuizRoundTrip(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()
	q := sqlSeedQuiz(t, st, "quiz-1")

	got, err := st.GetQuiz(ctx, q.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != q.Title || !got.StartTime.Equal(q.StartTime) || !got.EndTime.Equal(q.EndTime) {
		t.Fatalf("got %+v", got)
	}
	if len(got.Questions) != 2 || got.Questions[0].CorrectAnswer != "2" {
		t.Fatalf("questions = %+v", got.Questions)
	}

	if _, err := st.GetQuiz(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing quiz err = %v", err)
	}

	list, err := st.ListQuizzes(ctx, QuizListOpts{DepartmentID: "cse", BatchID: "2025"})
	if err != nil || len(list) != 1 {
		t.Fatalf("filtered list = %v, %v", list, err)
	}
	list, err = st.ListQuizzes(ctx, QuizListOpts{BatchID: "other"})
	if err != nil || len(list) != 0 {
		t.Fatalf("mismatched batch list = %v, %v", list, err)
	}

	q.Title = "Midterm v2"
	if err := st.UpdateQuiz(ctx, q); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = st.GetQuiz(ctx, q.ID)
	if got.Title != "Midterm v2" {
		t.Fatalf("title after update = %q", got.Title)
	}
	missing := q
	missing.ID = "nope"
	if err := st.UpdateQuiz(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing err = %v", err)
	}

	if err := st.SetResultsPublished(ctx, q.ID, true); err != nil {
		t.Fatalf("publish: %v", err)
	}
	got, _ = st.GetQuiz(ctx, q.ID)
	if !got.ResultsPublished {
		t.Fatal("publish flag not persisted")
	}
}

func TestSQLStoreUniqueAttempt(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()
	q := sqlSeedQuiz(t, st, "quiz-1")

	r := QuizResult{ID: "r1", QuizID: q.ID, StudentID: "alice", Score: 3,
		Answers: []Answer{{"q1", "2"}}, SubmittedAt: q.StartTime.Add(time.Minute)}
	if err := st.InsertQuizResult(ctx, r); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	// Same pair, different row id: the (quiz_id, student_id) index must reject.
	r.ID = "r2"
	if err := st.InsertQuizResult(ctx, r); !errors.Is(err, ErrDuplicateAttempt) {
		t.Fatalf("second insert err = %v, want ErrDuplicateAttempt", err)
	}

	r.ID, r.StudentID = "r3", "bob"
	if err := st.InsertQuizResult(ctx, r); err != nil {
		t.Fatalf("different student insert: %v", err)
	}

	got, err := st.GetQuizResult(ctx, q.ID, "alice")
	if err != nil || got.ID != "r1" || got.Score != 3 {
		t.Fatalf("stored result = %+v, %v", got, err)
	}
	if len(got.Answers) != 1 || got.Answers[0].QuestionID != "q1" {
		t.Fatalf("answers = %+v", got.Answers)
	}
}

func TestSQLStoreConcurrentResultInserts(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()
	q := sqlSeedQuiz(t, st, "quiz-1")

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- st.InsertQuizResult(ctx, QuizResult{
				ID: fmt.Sprintf("r%d", i), QuizID: q.ID, StudentID: "alice",
				Answers: []Answer{}, SubmittedAt: q.StartTime,
			})
		}(i)
	}
	wg.Wait()
	close(errs)

	ok, dup := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateAttempt):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != n-1 {
		t.Fatalf("winners = %d, duplicates = %d", ok, dup)
	}
}

func TestSQLStoreCascadeDelete(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()
	q := sqlSeedQuiz(t, st, "quiz-1")
	keep := sqlSeedQuiz(t, st, "quiz-2")

	for i, student := range []string{"alice", "bob"} {
		r := QuizResult{ID: fmt.Sprintf("r%d", i), QuizID: q.ID, StudentID: student,
			Answers: []Answer{}, SubmittedAt: q.StartTime}
		if err := st.InsertQuizResult(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	other := QuizResult{ID: "r-keep", QuizID: keep.ID, StudentID: "alice",
		Answers: []Answer{}, SubmittedAt: keep.StartTime}
	if err := st.InsertQuizResult(ctx, other); err != nil {
		t.Fatal(err)
	}

	if err := st.DeleteQuizCascade(ctx, q.ID); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}
	if _, err := st.GetQuiz(ctx, q.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("quiz survived: %v", err)
	}
	if _, err := st.GetQuizResult(ctx, q.ID, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("result survived: %v", err)
	}
	// Results for other quizzes are untouched.
	if _, err := st.GetQuizResult(ctx, keep.ID, "alice"); err != nil {
		t.Fatalf("unrelated result lost: %v", err)
	}

	if err := st.DeleteQuizCascade(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete missing err = %v", err)
	}
}

func TestSQLStoreScheduleAndAttendance(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	sc := Schedule{
		ID: "sched-1", Topic: "Graphs", DepartmentID: "cse", BatchID: "2025",
		Instructor: "Prof. K",
		StartTime:  time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC),
		MeetingLink: "https://meet.example/abc", WindowMinutes: 10,
	}
	if err := st.PutSchedule(ctx, sc); err != nil {
		t.Fatalf("put schedule: %v", err)
	}
	got, err := st.GetSchedule(ctx, sc.ID)
	if err != nil || got.Topic != "Graphs" || got.WindowMinutes != 10 {
		t.Fatalf("got %+v, %v", got, err)
	}

	list, err := st.ListSchedules(ctx, ScheduleListOpts{BatchID: "2025"})
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}

	rec := AttendanceRecord{ID: "a1", ScheduleID: sc.ID, StudentID: "alice",
		Status: "present", MarkedAt: sc.StartTime.Add(time.Minute)}
	if err := st.InsertAttendance(ctx, rec); err != nil {
		t.Fatalf("insert attendance: %v", err)
	}
	rec.ID = "a2"
	if err := st.InsertAttendance(ctx, rec); !errors.Is(err, ErrDuplicateAttempt) {
		t.Fatalf("duplicate attendance err = %v", err)
	}

	all, err := st.ListStudentAttendance(ctx, "alice")
	if err != nil || len(all) != 1 {
		t.Fatalf("attendance list = %v, %v", all, err)
	}

	sc.Topic = "Graphs II"
	if err := st.UpdateSchedule(ctx, sc); err != nil {
		t.Fatalf("update schedule: %v", err)
	}
	if err := st.DeleteSchedule(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete missing schedule err = %v", err)
	}
}

func TestSQLStoreAssessments(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	a := Assessment{
		ID: "assess-1", Name: "Final Project", Description: "Build and ship it",
		Deadline: time.Date(2025, 3, 20, 23, 59, 0, 0, time.UTC), BatchID: "2025",
	}
	if err := st.PutAssessment(ctx, a); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := st.GetAssessment(ctx, a.ID)
	if err != nil || got.Name != a.Name || !got.Deadline.Equal(a.Deadline) {
		t.Fatalf("got %+v, %v", got, err)
	}
	if _, err := st.GetAssessment(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}

	list, err := st.ListAssessments(ctx, "2025")
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}
	list, err = st.ListAssessments(ctx, "other")
	if err != nil || len(list) != 0 {
		t.Fatalf("other batch list = %v, %v", list, err)
	}

	sub := AssessmentSubmission{
		ID: "s1", AssessmentID: a.ID, StudentID: "alice",
		GithubLink: "https://github.com/alice/p", Description: "done",
		SubmittedAt: a.Deadline.Add(-time.Hour),
	}
	if err := st.InsertAssessmentSubmission(ctx, sub); err != nil {
		t.Fatalf("insert submission: %v", err)
	}
	// The (assessment_id, student_id) index rejects a second row.
	sub.ID = "s2"
	if err := st.InsertAssessmentSubmission(ctx, sub); !errors.Is(err, ErrDuplicateAttempt) {
		t.Fatalf("duplicate err = %v", err)
	}
	sub.ID, sub.StudentID = "s3", "bob"
	if err := st.InsertAssessmentSubmission(ctx, sub); err != nil {
		t.Fatalf("other student: %v", err)
	}

	subs, err := st.ListAssessmentSubmissions(ctx, a.ID)
	if err != nil || len(subs) != 2 {
		t.Fatalf("submissions = %v, %v", subs, err)
	}

	if err := st.DeleteAssessmentCascade(ctx, a.ID); err != nil {
		t.Fatalf("cascade: %v", err)
	}
	if _, err := st.GetAssessment(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("assessment survived: %v", err)
	}
	if _, err := st.GetAssessmentSubmission(ctx, a.ID, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("submission survived: %v", err)
	}
	if err := st.DeleteAssessmentCascade(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete missing err = %v", err)
	}
}

func TestSQLStoreStudents(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	insert := func(id, role, batch string) {
		_, err := st.db.ExecContext(ctx, `INSERT INTO users
			(id,username,password_hash,role,full_name,email,department_id,batch_id,created_at)
			VALUES ($1,$2,'x',$3,'Full Name','u@x.io','cse',$4,0)`, id, id, role, batch)
		if err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	insert("alice", "student", "2025")
	insert("bob", "student", "2025")
	insert("root", "admin", "2025")
	insert("eve", "student", "2024")

	got, err := st.GetStudent(ctx, "alice")
	if err != nil || got.FullName != "Full Name" || got.BatchID != "2025" {
		t.Fatalf("student = %+v, %v", got, err)
	}
	// Admins are not students even when the id matches.
	if _, err := st.GetStudent(ctx, "root"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("admin lookup err = %v", err)
	}

	n, err := st.CountBatchStudents(ctx, "2025")
	if err != nil || n != 2 {
		t.Fatalf("batch count = %d, %v", n, err)
	}
}
