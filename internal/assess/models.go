package assess

import "time"

type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	Marks         int      `json:"marks"`
}

type Quiz struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	DepartmentID     string     `json:"departmentId"`
	BatchID          string     `json:"batchId"`
	StartTime        time.Time  `json:"startTime"`
	EndTime          time.Time  `json:"endTime"`
	Questions        []Question `json:"questions"`
	ResultsPublished bool       `json:"resultsPublished"`
	CreatedAt        int64      `json:"createdAt,omitempty"`
}

// TotalMarks is the maximum achievable score for the quiz.
func (q Quiz) TotalMarks() int {
	total := 0
	for _, qu := range q.Questions {
		total += qu.Marks
	}
	return total
}

// StripAnswerKey removes correct answers before serving a quiz to students.
func (q Quiz) StripAnswerKey() Quiz {
	qs := make([]Question, len(q.Questions))
	copy(qs, q.Questions)
	for i := range qs {
		qs[i].CorrectAnswer = ""
	}
	q.Questions = qs
	return q
}

type Answer struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer string `json:"selectedAnswer"`
}

type QuizResult struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	StudentID   string    `json:"studentId"`
	Score       int       `json:"score"`
	Answers     []Answer  `json:"answers"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type Schedule struct {
	ID            string    `json:"id"`
	Topic         string    `json:"topic"`
	DepartmentID  string    `json:"departmentId"`
	BatchID       string    `json:"batchId"`
	Instructor    string    `json:"instructor"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	MeetingLink   string    `json:"meetingLink,omitempty"`
	MeetingID     string    `json:"meetingId,omitempty"`
	Passcode      string    `json:"passcode,omitempty"`
	WindowMinutes int       `json:"attendanceWindow"`
	CreatedAt     int64     `json:"createdAt,omitempty"`
}

type AttendanceRecord struct {
	ID         string    `json:"id"`
	ScheduleID string    `json:"scheduleId"`
	StudentID  string    `json:"studentId"`
	Status     string    `json:"status"` // present|absent
	MarkedAt   time.Time `json:"markedAt"`
}

// Assessment is a deadline-gated deliverable (project work submitted as a
// repository link). Unlike quizzes there is no opening time: submissions are
// accepted from creation until the deadline.
type Assessment struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	BatchID     string    `json:"batchId"`
	CreatedAt   int64     `json:"createdAt,omitempty"`
}

type AssessmentSubmission struct {
	ID           string    `json:"id"`
	AssessmentID string    `json:"assessmentId"`
	StudentID    string    `json:"studentId"`
	GithubLink   string    `json:"githubLink"`
	Description  string    `json:"description"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// AssessmentOverview annotates an assessment with the requesting student's
// submission state.
type AssessmentOverview struct {
	Assessment
	IsSubmitted bool `json:"isSubmitted"`
}

type AssessmentSubmissionView struct {
	AssessmentSubmission
	StudentName  string `json:"studentName,omitempty"`
	StudentEmail string `json:"studentEmail,omitempty"`
}

type Student struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	DepartmentID string `json:"departmentId"`
	BatchID      string `json:"batchId"`
}

// QuizOverview is a student-facing projection of a quiz in a listing. Score and
// TotalMarks are set only for attempted quizzes; NotAttempted is set once the
// window has ended without a submission.
type QuizOverview struct {
	Quiz
	Score        *int `json:"score,omitempty"`
	TotalMarks   *int `json:"totalMarks,omitempty"`
	NotAttempted bool `json:"notAttempted,omitempty"`
}

// CategorizedQuizzes groups a student's quizzes by window state.
type CategorizedQuizzes struct {
	Upcoming  []QuizOverview `json:"upcoming"`
	Active    []QuizOverview `json:"active"`
	Completed []QuizOverview `json:"completed"`
}

// QuizStatus pairs a quiz with its evaluated window state for admin listings.
type QuizStatus struct {
	Quiz
	Status WindowState `json:"status"`
}

type Submission struct {
	QuizResult
	StudentName  string `json:"studentName,omitempty"`
	StudentEmail string `json:"studentEmail,omitempty"`
}

type SubmissionAnalytics struct {
	ParticipationRate float64 `json:"participationRate"`
	AverageScore      float64 `json:"averageScore"`
	HighestScore      int     `json:"highestScore"`
	LowestScore       int     `json:"lowestScore"`
}

type SubmissionReport struct {
	Submissions []Submission        `json:"submissions"`
	Analytics   SubmissionAnalytics `json:"analytics"`
}

type StudentResult struct {
	Result QuizResult `json:"result"`
	Quiz   Quiz       `json:"quiz"`
	Rank   int        `json:"rank"`
}

type AttendanceEntry struct {
	Topic  string    `json:"topic"`
	Date   time.Time `json:"date"`
	Status string    `json:"status"` // present|absent
}

type AttendanceSummary struct {
	PercentageAttended    float64           `json:"percentageAttended"`
	TotalClassesAttended  int               `json:"totalClassesAttended"`
	TotalClassesScheduled int               `json:"totalClassesScheduled"`
	Records               []AttendanceEntry `json:"attendanceRecords"`
}
