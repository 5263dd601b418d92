package assess

import "context"

type QuizListOpts struct {
	DepartmentID string
	BatchID      string
	Limit        int
	Offset       int
}

type ScheduleListOpts struct {
	BatchID string
	Limit   int
	Offset  int
}

// Store is the persistence boundary of the assessment engine. Insert methods
// for quiz results and attendance must be backed by a unique constraint on
// (subject, student): they return ErrDuplicateAttempt when a record already
// exists, and a concurrent pair of inserts for the same key yields exactly one
// success.
type Store interface {
	PutQuiz(ctx context.Context, q Quiz) error
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	ListQuizzes(ctx context.Context, opts QuizListOpts) ([]Quiz, error)
	UpdateQuiz(ctx context.Context, q Quiz) error
	// DeleteQuizCascade removes the quiz and all its results in one
	// transaction; partial deletion is never observable.
	DeleteQuizCascade(ctx context.Context, id string) error
	SetResultsPublished(ctx context.Context, id string, published bool) error

	InsertQuizResult(ctx context.Context, r QuizResult) error
	GetQuizResult(ctx context.Context, quizID, studentID string) (QuizResult, error)
	ListQuizResults(ctx context.Context, quizID string) ([]QuizResult, error) // score desc
	ListStudentResults(ctx context.Context, studentID string) ([]QuizResult, error)

	PutSchedule(ctx context.Context, s Schedule) error
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	ListSchedules(ctx context.Context, opts ScheduleListOpts) ([]Schedule, error) // start_time desc
	UpdateSchedule(ctx context.Context, s Schedule) error
	DeleteSchedule(ctx context.Context, id string) error

	InsertAttendance(ctx context.Context, rec AttendanceRecord) error
	GetAttendance(ctx context.Context, scheduleID, studentID string) (AttendanceRecord, error)
	ListStudentAttendance(ctx context.Context, studentID string) ([]AttendanceRecord, error)

	PutAssessment(ctx context.Context, a Assessment) error
	GetAssessment(ctx context.Context, id string) (Assessment, error)
	ListAssessments(ctx context.Context, batchID string) ([]Assessment, error) // deadline desc
	// DeleteAssessmentCascade removes the assessment and all its submissions
	// in one transaction.
	DeleteAssessmentCascade(ctx context.Context, id string) error

	InsertAssessmentSubmission(ctx context.Context, sub AssessmentSubmission) error
	GetAssessmentSubmission(ctx context.Context, assessmentID, studentID string) (AssessmentSubmission, error)
	ListAssessmentSubmissions(ctx context.Context, assessmentID string) ([]AssessmentSubmission, error) // submitted_at desc
	ListStudentAssessmentSubmissions(ctx context.Context, studentID string) ([]AssessmentSubmission, error)

	GetStudent(ctx context.Context, id string) (Student, error)
	CountBatchStudents(ctx context.Context, batchID string) (int, error)
}
