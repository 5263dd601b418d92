package assess

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
)

// ActivityRecorder appends audit events for successful attempts.
type ActivityRecorder interface {
	Record(ctx context.Context, eventType, message, userID, itemID string) error
}

// Service orchestrates the timed assessment flows. It holds no request state:
// window status is computed from the injected clock on every call, and the
// at-most-one-attempt invariant lives in the store's unique index.
type Service struct {
	store  Store
	events ActivityRecorder
	now    func() time.Time
}

func NewService(store Store, events ActivityRecorder, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, events: events, now: now}
}

// --- admin: quizzes ---

func (s *Service) CreateQuiz(ctx context.Context, q Quiz) (Quiz, error) {
	if err := validateQuiz(q); err != nil {
		return Quiz{}, err
	}
	q.ID = uuid.NewString()
	for i := range q.Questions {
		if q.Questions[i].ID == "" {
			q.Questions[i].ID = uuid.NewString()
		}
	}
	q.ResultsPublished = false
	if err := s.store.PutQuiz(ctx, q); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

func validateQuiz(q Quiz) error {
	if !q.EndTime.After(q.StartTime) {
		return validationf("endTime must be after startTime")
	}
	if len(q.Questions) == 0 {
		return validationf("a quiz needs at least one question")
	}
	for _, qu := range q.Questions {
		if len(qu.Options) < 2 {
			return validationf("question %q needs at least two options", qu.Text)
		}
		if qu.Marks <= 0 {
			return validationf("question %q needs a positive mark value", qu.Text)
		}
		found := false
		for _, opt := range qu.Options {
			if opt == qu.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return validationf("correct answer for question %q is not among its options", qu.Text)
		}
	}
	return nil
}

// QuizPatch carries an admin edit; nil fields keep the stored value.
type QuizPatch struct {
	Title        *string
	DepartmentID *string
	BatchID      *string
	StartTime    *time.Time
	EndTime      *time.Time
	Questions    []Question
}

func (s *Service) UpdateQuiz(ctx context.Context, id string, p QuizPatch) (Quiz, error) {
	q, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	if p.Title != nil {
		q.Title = *p.Title
	}
	if p.DepartmentID != nil {
		q.DepartmentID = *p.DepartmentID
	}
	if p.BatchID != nil {
		q.BatchID = *p.BatchID
	}
	if p.StartTime != nil {
		q.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		q.EndTime = *p.EndTime
	}
	if p.Questions != nil {
		q.Questions = p.Questions
		for i := range q.Questions {
			if q.Questions[i].ID == "" {
				q.Questions[i].ID = uuid.NewString()
			}
		}
	}
	if err := validateQuiz(q); err != nil {
		return Quiz{}, err
	}
	if err := s.store.UpdateQuiz(ctx, q); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

func (s *Service) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	return s.store.GetQuiz(ctx, id)
}

// AdminQuizzes lists every quiz with its window state evaluated against the
// current clock.
func (s *Service) AdminQuizzes(ctx context.Context) ([]QuizStatus, error) {
	quizzes, err := s.store.ListQuizzes(ctx, QuizListOpts{})
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]QuizStatus, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, QuizStatus{Quiz: q, Status: EvaluateWindow(now, q.StartTime, q.EndTime)})
	}
	return out, nil
}

func (s *Service) DeleteQuiz(ctx context.Context, id string) error {
	return s.store.DeleteQuizCascade(ctx, id)
}

func (s *Service) PublishResults(ctx context.Context, id string, publish bool) error {
	return s.store.SetResultsPublished(ctx, id, publish)
}

// QuizSubmissions returns all results for a quiz with participation analytics.
func (s *Service) QuizSubmissions(ctx context.Context, quizID string) (SubmissionReport, error) {
	results, err := s.store.ListQuizResults(ctx, quizID)
	if err != nil {
		return SubmissionReport{}, err
	}
	report := SubmissionReport{Submissions: []Submission{}}
	if len(results) == 0 {
		return report, nil
	}
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return SubmissionReport{}, err
	}
	batchTotal, err := s.store.CountBatchStudents(ctx, quiz.BatchID)
	if err != nil {
		return SubmissionReport{}, err
	}

	sum := 0
	highest := results[0].Score
	lowest := results[0].Score
	for _, r := range results {
		sub := Submission{QuizResult: r}
		if st, err := s.store.GetStudent(ctx, r.StudentID); err == nil {
			sub.StudentName = st.FullName
			sub.StudentEmail = st.Email
		}
		report.Submissions = append(report.Submissions, sub)
		sum += r.Score
		if r.Score > highest {
			highest = r.Score
		}
		if r.Score < lowest {
			lowest = r.Score
		}
	}
	report.Analytics = SubmissionAnalytics{
		AverageScore: float64(sum) / float64(len(results)),
		HighestScore: highest,
		LowestScore:  lowest,
	}
	if batchTotal > 0 {
		report.Analytics.ParticipationRate = float64(len(results)) / float64(batchTotal) * 100
	}
	return report, nil
}

// --- student: quizzes ---

// StudentQuizzes categorizes the student's quizzes by window state. The
// completed bucket holds attempted quizzes (with score and total marks) and
// ended quizzes the student missed, annotated NotAttempted.
func (s *Service) StudentQuizzes(ctx context.Context, studentID string) (CategorizedQuizzes, error) {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return CategorizedQuizzes{}, err
	}
	quizzes, err := s.store.ListQuizzes(ctx, QuizListOpts{DepartmentID: student.DepartmentID, BatchID: student.BatchID})
	if err != nil {
		return CategorizedQuizzes{}, err
	}
	results, err := s.store.ListStudentResults(ctx, studentID)
	if err != nil {
		return CategorizedQuizzes{}, err
	}
	scores := make(map[string]int, len(results))
	for _, r := range results {
		scores[r.QuizID] = r.Score
	}

	now := s.now()
	cat := CategorizedQuizzes{Upcoming: []QuizOverview{}, Active: []QuizOverview{}, Completed: []QuizOverview{}}
	for _, q := range quizzes {
		ov := QuizOverview{Quiz: q.StripAnswerKey()}
		if score, ok := scores[q.ID]; ok {
			total := q.TotalMarks()
			ov.Score = &score
			ov.TotalMarks = &total
			cat.Completed = append(cat.Completed, ov)
			continue
		}
		switch EvaluateWindow(now, q.StartTime, q.EndTime) {
		case WindowActive:
			cat.Active = append(cat.Active, ov)
		case WindowUpcoming:
			cat.Upcoming = append(cat.Upcoming, ov)
		case WindowEnded:
			ov.NotAttempted = true
			cat.Completed = append(cat.Completed, ov)
		}
	}
	return cat, nil
}

// QuizForAttempt serves a quiz to a student about to take it: the window must
// be active, the student must not have submitted already, and the answer key
// is stripped.
func (s *Service) QuizForAttempt(ctx context.Context, quizID, studentID string) (Quiz, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return Quiz{}, err
	}
	if EvaluateWindow(s.now(), q.StartTime, q.EndTime) != WindowActive {
		return Quiz{}, &WindowNotOpenError{Action: "This quiz", Start: q.StartTime, End: q.EndTime}
	}
	if _, err := s.store.GetQuizResult(ctx, quizID, studentID); err == nil {
		return Quiz{}, ErrDuplicateAttempt
	} else if !errors.Is(err, ErrNotFound) {
		return Quiz{}, err
	}
	return q.StripAnswerKey(), nil
}

// SubmitQuiz records the student's single attempt. The window is re-evaluated
// at the moment of the write, the score is computed exactly once, and the
// insert is fenced by the (quiz, student) unique index. The read-before-insert
// only yields a friendlier duplicate message; the index is what guarantees
// at-most-once under concurrency.
func (s *Service) SubmitQuiz(ctx context.Context, quizID, studentID string, answers []Answer) (QuizResult, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return QuizResult{}, err
	}
	now := s.now()
	if EvaluateWindow(now, q.StartTime, q.EndTime) != WindowActive {
		return QuizResult{}, &WindowNotOpenError{Action: "This quiz", Start: q.StartTime, End: q.EndTime}
	}
	if _, err := s.store.GetQuizResult(ctx, quizID, studentID); err == nil {
		return QuizResult{}, ErrDuplicateAttempt
	} else if !errors.Is(err, ErrNotFound) {
		return QuizResult{}, err
	}

	r := QuizResult{
		ID:          uuid.NewString(),
		QuizID:      quizID,
		StudentID:   studentID,
		Score:       Score(q.Questions, answers),
		Answers:     answers,
		SubmittedAt: now,
	}
	if err := s.store.InsertQuizResult(ctx, r); err != nil {
		return QuizResult{}, err
	}
	s.record(ctx, "QUIZ_SUBMITTED", "submitted the quiz: "+q.Title, studentID, quizID)
	return r, nil
}

// ResultForStudent applies the visibility gate. NotPublished and NoAttempt are
// distinct outcomes: the caller maps them to 403 and 404 respectively.
func (s *Service) ResultForStudent(ctx context.Context, quizID, studentID string) (StudentResult, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return StudentResult{}, err
	}
	if !q.ResultsPublished {
		return StudentResult{}, ErrNotPublished
	}
	r, err := s.store.GetQuizResult(ctx, quizID, studentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return StudentResult{}, ErrNoAttempt
		}
		return StudentResult{}, err
	}
	all, err := s.store.ListQuizResults(ctx, quizID)
	if err != nil {
		return StudentResult{}, err
	}
	rank := 0
	for i, other := range all {
		if other.StudentID == studentID {
			rank = i + 1
			break
		}
	}
	return StudentResult{Result: r, Quiz: q.StripAnswerKey(), Rank: rank}, nil
}

// --- admin: schedules ---

func (s *Service) CreateSchedule(ctx context.Context, sc Schedule) (Schedule, error) {
	if err := validateSchedule(sc); err != nil {
		return Schedule{}, err
	}
	sc.ID = uuid.NewString()
	if sc.WindowMinutes == 0 {
		sc.WindowMinutes = DefaultAttendanceWindowMinutes
	}
	if err := s.store.PutSchedule(ctx, sc); err != nil {
		return Schedule{}, err
	}
	return sc, nil
}

func validateSchedule(sc Schedule) error {
	if !sc.EndTime.After(sc.StartTime) {
		return validationf("endTime must be after startTime")
	}
	if sc.WindowMinutes < 0 {
		return validationf("attendanceWindow must be at least 1 minute")
	}
	return nil
}

func (s *Service) UpdateSchedule(ctx context.Context, sc Schedule) (Schedule, error) {
	if err := validateSchedule(sc); err != nil {
		return Schedule{}, err
	}
	if sc.WindowMinutes == 0 {
		sc.WindowMinutes = DefaultAttendanceWindowMinutes
	}
	if err := s.store.UpdateSchedule(ctx, sc); err != nil {
		return Schedule{}, err
	}
	return sc, nil
}

func (s *Service) ListSchedules(ctx context.Context, opts ScheduleListOpts) ([]Schedule, error) {
	return s.store.ListSchedules(ctx, opts)
}

func (s *Service) DeleteSchedule(ctx context.Context, id string) error {
	return s.store.DeleteSchedule(ctx, id)
}

// --- assessments ---

func (s *Service) CreateAssessment(ctx context.Context, a Assessment) (Assessment, error) {
	if a.Name == "" {
		return Assessment{}, validationf("assessment name is required")
	}
	if a.Description == "" {
		return Assessment{}, validationf("description is required")
	}
	if a.Deadline.IsZero() {
		return Assessment{}, validationf("submission deadline is required")
	}
	if a.BatchID == "" {
		return Assessment{}, validationf("a target batch must be selected")
	}
	a.ID = uuid.NewString()
	if err := s.store.PutAssessment(ctx, a); err != nil {
		return Assessment{}, err
	}
	return a, nil
}

func (s *Service) AdminAssessments(ctx context.Context) ([]Assessment, error) {
	return s.store.ListAssessments(ctx, "")
}

func (s *Service) DeleteAssessment(ctx context.Context, id string) error {
	return s.store.DeleteAssessmentCascade(ctx, id)
}

// AssessmentSubmissions returns every submission for an assessment, newest
// first, with the submitting student's name and email joined in.
func (s *Service) AssessmentSubmissions(ctx context.Context, assessmentID string) ([]AssessmentSubmissionView, error) {
	if _, err := s.store.GetAssessment(ctx, assessmentID); err != nil {
		return nil, err
	}
	subs, err := s.store.ListAssessmentSubmissions(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	out := make([]AssessmentSubmissionView, 0, len(subs))
	for _, sub := range subs {
		view := AssessmentSubmissionView{AssessmentSubmission: sub}
		if st, err := s.store.GetStudent(ctx, sub.StudentID); err == nil {
			view.StudentName = st.FullName
			view.StudentEmail = st.Email
		}
		out = append(out, view)
	}
	return out, nil
}

// ActiveAssessmentsFor lists the student's batch assessments whose deadline has
// not passed, each annotated with whether this student already submitted.
func (s *Service) ActiveAssessmentsFor(ctx context.Context, studentID string) ([]AssessmentOverview, error) {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	assessments, err := s.store.ListAssessments(ctx, student.BatchID)
	if err != nil {
		return nil, err
	}
	subs, err := s.store.ListStudentAssessmentSubmissions(ctx, studentID)
	if err != nil {
		return nil, err
	}
	submitted := make(map[string]bool, len(subs))
	for _, sub := range subs {
		submitted[sub.AssessmentID] = true
	}

	now := s.now()
	out := []AssessmentOverview{}
	for _, a := range assessments {
		if !a.Deadline.After(now) {
			continue
		}
		out = append(out, AssessmentOverview{Assessment: a, IsSubmitted: submitted[a.ID]})
	}
	return out, nil
}

// SubmitAssessment records the student's single submission. The deadline is
// inclusive: a submission at the exact deadline instant is accepted. Like
// SubmitQuiz, the unique index is what enforces at-most-once; the pre-read only
// shapes the message.
func (s *Service) SubmitAssessment(ctx context.Context, assessmentID, studentID, githubLink, description string) (AssessmentSubmission, error) {
	a, err := s.store.GetAssessment(ctx, assessmentID)
	if err != nil {
		return AssessmentSubmission{}, err
	}
	now := s.now()
	if now.After(a.Deadline) {
		return AssessmentSubmission{}, ErrDeadlinePassed
	}
	if _, err := s.store.GetAssessmentSubmission(ctx, assessmentID, studentID); err == nil {
		return AssessmentSubmission{}, ErrDuplicateAttempt
	} else if !errors.Is(err, ErrNotFound) {
		return AssessmentSubmission{}, err
	}

	sub := AssessmentSubmission{
		ID:           uuid.NewString(),
		AssessmentID: assessmentID,
		StudentID:    studentID,
		GithubLink:   githubLink,
		Description:  description,
		SubmittedAt:  now,
	}
	if err := s.store.InsertAssessmentSubmission(ctx, sub); err != nil {
		return AssessmentSubmission{}, err
	}
	s.record(ctx, "ASSESSMENT_SUBMITTED", "submitted the assessment: "+a.Name, studentID, assessmentID)
	return sub, nil
}

// --- student: attendance ---

// MarkAttendance records presence for a scheduled class. Same shape as
// SubmitQuiz: window re-checked at the write, unique index fences duplicates.
func (s *Service) MarkAttendance(ctx context.Context, scheduleID, studentID string) (AttendanceRecord, error) {
	sc, err := s.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return AttendanceRecord{}, err
	}
	now := s.now()
	state, start, end := ScheduleWindow(now, sc)
	if state != WindowActive {
		return AttendanceRecord{}, &WindowNotOpenError{Action: "Attendance marking", Start: start, End: end}
	}
	if _, err := s.store.GetAttendance(ctx, scheduleID, studentID); err == nil {
		return AttendanceRecord{}, ErrDuplicateAttempt
	} else if !errors.Is(err, ErrNotFound) {
		return AttendanceRecord{}, err
	}

	rec := AttendanceRecord{
		ID:         uuid.NewString(),
		ScheduleID: scheduleID,
		StudentID:  studentID,
		Status:     "present",
		MarkedAt:   now,
	}
	if err := s.store.InsertAttendance(ctx, rec); err != nil {
		return AttendanceRecord{}, err
	}
	s.record(ctx, "ATTENDANCE_MARKED", "marked attendance for: "+sc.Topic, studentID, scheduleID)
	return rec, nil
}

// ActiveAttendance scans the student's batch schedules for the first class
// whose marking window is currently open and has no record yet. Returns nil
// when nothing is markable.
func (s *Service) ActiveAttendance(ctx context.Context, studentID string) (*Schedule, error) {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	schedules, err := s.store.ListSchedules(ctx, ScheduleListOpts{BatchID: student.BatchID})
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, sc := range schedules {
		state, _, _ := ScheduleWindow(now, sc)
		if state != WindowActive {
			continue
		}
		_, err := s.store.GetAttendance(ctx, sc.ID, studentID)
		if errors.Is(err, ErrNotFound) {
			found := sc
			return &found, nil
		}
		if err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// AttendanceSummaryFor reports per-class presence for the student's batch;
// classes without a record count as absent.
func (s *Service) AttendanceSummaryFor(ctx context.Context, studentID string) (AttendanceSummary, error) {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return AttendanceSummary{}, err
	}
	schedules, err := s.store.ListSchedules(ctx, ScheduleListOpts{BatchID: student.BatchID})
	if err != nil {
		return AttendanceSummary{}, err
	}
	records, err := s.store.ListStudentAttendance(ctx, studentID)
	if err != nil {
		return AttendanceSummary{}, err
	}
	status := make(map[string]string, len(records))
	for _, rec := range records {
		status[rec.ScheduleID] = rec.Status
	}

	summary := AttendanceSummary{
		TotalClassesAttended:  len(records),
		TotalClassesScheduled: len(schedules),
		Records:               make([]AttendanceEntry, 0, len(schedules)),
	}
	for _, sc := range schedules {
		st, ok := status[sc.ID]
		if !ok {
			st = "absent"
		}
		summary.Records = append(summary.Records, AttendanceEntry{Topic: sc.Topic, Date: sc.StartTime, Status: st})
	}
	if len(schedules) > 0 {
		summary.PercentageAttended = float64(len(records)) / float64(len(schedules)) * 100
	}
	return summary, nil
}

func (s *Service) record(ctx context.Context, typ, msg, userID, itemID string) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(ctx, typ, msg, userID, itemID); err != nil {
		log.Printf("activity log: %v", err)
	}
}
