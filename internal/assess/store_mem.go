package assess

import (
	"context"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu          sync.RWMutex
	quizzes     map[string]Quiz
	results     map[string]QuizResult // quizID|studentID
	schedules   map[string]Schedule
	attendance  map[string]AttendanceRecord // scheduleID|studentID
	assessments map[string]Assessment
	submissions map[string]AssessmentSubmission // assessmentID|studentID
	students    map[string]Student
}

// NewInMemoryStore backs the engine with process-local maps. The uniqueness
// constraint is the map key under the store mutex; used by tests and offline
// demos.
func NewInMemoryStore() *MemoryStore {
	return &MemoryStore{
		quizzes:     map[string]Quiz{},
		results:     map[string]QuizResult{},
		schedules:   map[string]Schedule{},
		attendance:  map[string]AttendanceRecord{},
		assessments: map[string]Assessment{},
		submissions: map[string]AssessmentSubmission{},
		students:    map[string]Student{},
	}
}

func pairKey(a, b string) string { return a + "|" + b }

func (m *MemoryStore) PutQuiz(_ context.Context, q Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[q.ID] = q
	return nil
}

func (m *MemoryStore) GetQuiz(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, notFoundf("quiz")
	}
	return q, nil
}

func (m *MemoryStore) ListQuizzes(_ context.Context, opts QuizListOpts) ([]Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Quiz, 0, len(m.quizzes))
	for _, q := range m.quizzes {
		if opts.DepartmentID != "" && q.DepartmentID != opts.DepartmentID {
			continue
		}
		if opts.BatchID != "" && q.BatchID != opts.BatchID {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *MemoryStore) UpdateQuiz(_ context.Context, q Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[q.ID]; !ok {
		return notFoundf("quiz")
	}
	m.quizzes[q.ID] = q
	return nil
}

func (m *MemoryStore) DeleteQuizCascade(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[id]; !ok {
		return notFoundf("quiz")
	}
	delete(m.quizzes, id)
	for k, r := range m.results {
		if r.QuizID == id {
			delete(m.results, k)
		}
	}
	return nil
}

func (m *MemoryStore) SetResultsPublished(_ context.Context, id string, published bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quizzes[id]
	if !ok {
		return notFoundf("quiz")
	}
	q.ResultsPublished = published
	m.quizzes[id] = q
	return nil
}

func (m *MemoryStore) InsertQuizResult(_ context.Context, r QuizResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey(r.QuizID, r.StudentID)
	if _, ok := m.results[k]; ok {
		return ErrDuplicateAttempt
	}
	m.results[k] = r
	return nil
}

func (m *MemoryStore) GetQuizResult(_ context.Context, quizID, studentID string) (QuizResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[pairKey(quizID, studentID)]
	if !ok {
		return QuizResult{}, notFoundf("quiz result")
	}
	return r, nil
}

func (m *MemoryStore) ListQuizResults(_ context.Context, quizID string) ([]QuizResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []QuizResult{}
	for _, r := range m.results {
		if r.QuizID == quizID {
			out = append(out, r)
		}
	}
	// Same order as the SQL store: score desc, ties broken by submission time.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

func (m *MemoryStore) ListStudentResults(_ context.Context, studentID string) ([]QuizResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []QuizResult{}
	for _, r := range m.results {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) PutSchedule(_ context.Context, s Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[s.ID] = s
	return nil
}

func (m *MemoryStore) GetSchedule(_ context.Context, id string) (Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schedules[id]
	if !ok {
		return Schedule{}, notFoundf("scheduled class")
	}
	return s, nil
}

func (m *MemoryStore) ListSchedules(_ context.Context, opts ScheduleListOpts) ([]Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Schedule, 0, len(m.schedules))
	for _, s := range m.schedules {
		if opts.BatchID != "" && s.BatchID != opts.BatchID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (m *MemoryStore) UpdateSchedule(_ context.Context, s Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[s.ID]; !ok {
		return notFoundf("scheduled class")
	}
	m.schedules[s.ID] = s
	return nil
}

func (m *MemoryStore) DeleteSchedule(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return notFoundf("scheduled class")
	}
	delete(m.schedules, id)
	return nil
}

func (m *MemoryStore) InsertAttendance(_ context.Context, rec AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey(rec.ScheduleID, rec.StudentID)
	if _, ok := m.attendance[k]; ok {
		return ErrDuplicateAttempt
	}
	m.attendance[k] = rec
	return nil
}

func (m *MemoryStore) GetAttendance(_ context.Context, scheduleID, studentID string) (AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.attendance[pairKey(scheduleID, studentID)]
	if !ok {
		return AttendanceRecord{}, notFoundf("attendance record")
	}
	return rec, nil
}

func (m *MemoryStore) ListStudentAttendance(_ context.Context, studentID string) ([]AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []AttendanceRecord{}
	for _, rec := range m.attendance {
		if rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *MemoryStore) PutAssessment(_ context.Context, a Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments[a.ID] = a
	return nil
}

func (m *MemoryStore) GetAssessment(_ context.Context, id string) (Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assessments[id]
	if !ok {
		return Assessment{}, notFoundf("assessment")
	}
	return a, nil
}

func (m *MemoryStore) ListAssessments(_ context.Context, batchID string) ([]Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Assessment, 0, len(m.assessments))
	for _, a := range m.assessments {
		if batchID != "" && a.BatchID != batchID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.After(out[j].Deadline) })
	return out, nil
}

func (m *MemoryStore) DeleteAssessmentCascade(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assessments[id]; !ok {
		return notFoundf("assessment")
	}
	delete(m.assessments, id)
	for k, sub := range m.submissions {
		if sub.AssessmentID == id {
			delete(m.submissions, k)
		}
	}
	return nil
}

func (m *MemoryStore) InsertAssessmentSubmission(_ context.Context, sub AssessmentSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey(sub.AssessmentID, sub.StudentID)
	if _, ok := m.submissions[k]; ok {
		return ErrDuplicateAttempt
	}
	m.submissions[k] = sub
	return nil
}

func (m *MemoryStore) GetAssessmentSubmission(_ context.Context, assessmentID, studentID string) (AssessmentSubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.submissions[pairKey(assessmentID, studentID)]
	if !ok {
		return AssessmentSubmission{}, notFoundf("assessment submission")
	}
	return sub, nil
}

func (m *MemoryStore) ListAssessmentSubmissions(_ context.Context, assessmentID string) ([]AssessmentSubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []AssessmentSubmission{}
	for _, sub := range m.submissions {
		if sub.AssessmentID == assessmentID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (m *MemoryStore) ListStudentAssessmentSubmissions(_ context.Context, studentID string) ([]AssessmentSubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []AssessmentSubmission{}
	for _, sub := range m.submissions {
		if sub.StudentID == studentID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (m *MemoryStore) PutStudent(s Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.ID] = s
}

func (m *MemoryStore) GetStudent(_ context.Context, id string) (Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return Student{}, notFoundf("student")
	}
	return s, nil
}

func (m *MemoryStore) CountBatchStudents(_ context.Context, batchID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.students {
		if s.BatchID == batchID {
			n++
		}
	}
	return n, nil
}
