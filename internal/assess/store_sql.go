package assess

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// isUniqueViolation recognizes the backing index rejecting a second attempt for
// the same (subject, student) pair. The index is the invariant guardian; any
// pre-read in the service is only there for a friendlier message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") // sqlite
}

func (s *SQLStore) PutQuiz(ctx context.Context, q Quiz) error {
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes
		(id,title,department_id,batch_id,start_time,end_time,questions_json,results_published,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		q.ID, q.Title, q.DepartmentID, q.BatchID,
		q.StartTime.Unix(), q.EndTime.Unix(), string(qj), q.ResultsPublished, time.Now().Unix())
	return err
}

func (s *SQLStore) scanQuiz(row *sql.Row) (Quiz, error) {
	var q Quiz
	var qjson string
	var start, end int64
	err := row.Scan(&q.ID, &q.Title, &q.DepartmentID, &q.BatchID, &start, &end, &qjson, &q.ResultsPublished, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, notFoundf("quiz")
		}
		return Quiz{}, err
	}
	q.StartTime = time.Unix(start, 0).UTC()
	q.EndTime = time.Unix(end, 0).UTC()
	if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

const quizCols = `id,title,department_id,batch_id,start_time,end_time,questions_json,results_published,created_at`

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	return s.scanQuiz(s.db.QueryRowContext(ctx, `SELECT `+quizCols+` FROM quizzes WHERE id=$1`, id))
}

func (s *SQLStore) ListQuizzes(ctx context.Context, opts QuizListOpts) ([]Quiz, error) {
	query := `SELECT ` + quizCols + ` FROM quizzes`
	args := []any{}
	var conds []string
	if opts.DepartmentID != "" {
		args = append(args, opts.DepartmentID)
		conds = append(conds, "department_id=$"+itoa(len(args)))
	}
	if opts.BatchID != "" {
		args = append(args, opts.BatchID)
		conds = append(conds, "batch_id=$"+itoa(len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY start_time"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += " LIMIT $" + itoa(len(args))
		if opts.Offset > 0 {
			args = append(args, opts.Offset)
			query += " OFFSET $" + itoa(len(args))
		}
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Quiz{}
	for rows.Next() {
		var q Quiz
		var qjson string
		var start, end int64
		if err := rows.Scan(&q.ID, &q.Title, &q.DepartmentID, &q.BatchID, &start, &end, &qjson, &q.ResultsPublished, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.StartTime = time.Unix(start, 0).UTC()
		q.EndTime = time.Unix(end, 0).UTC()
		if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateQuiz(ctx context.Context, q Quiz) error {
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE quizzes
		SET title=$1, department_id=$2, batch_id=$3, start_time=$4, end_time=$5, questions_json=$6
		WHERE id=$7`,
		q.Title, q.DepartmentID, q.BatchID, q.StartTime.Unix(), q.EndTime.Unix(), string(qj), q.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFoundf("quiz")
	}
	return nil
}

// DeleteQuizCascade removes the quiz and every result submitted for it inside
// one transaction, so a failure midway leaves both tables untouched.
func (s *SQLStore) DeleteQuizCascade(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_results WHERE quiz_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFoundf("quiz")
	}
	return tx.Commit()
}

func (s *SQLStore) SetResultsPublished(ctx context.Context, id string, published bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE quizzes SET results_published=$1 WHERE id=$2`, published, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFoundf("quiz")
	}
	return nil
}

func (s *SQLStore) InsertQuizResult(ctx context.Context, r QuizResult) error {
	aj, err := json.Marshal(r.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quiz_results
		(id,quiz_id,student_id,score,answers_json,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		r.ID, r.QuizID, r.StudentID, r.Score, string(aj), r.SubmittedAt.Unix())
	if isUniqueViolation(err) {
		return ErrDuplicateAttempt
	}
	return err
}

func (s *SQLStore) GetQuizResult(ctx context.Context, quizID, studentID string) (QuizResult, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,quiz_id,student_id,score,answers_json,submitted_at
		FROM quiz_results WHERE quiz_id=$1 AND student_id=$2`, quizID, studentID)
	var r QuizResult
	var ajson string
	var submitted int64
	if err := row.Scan(&r.ID, &r.QuizID, &r.StudentID, &r.Score, &ajson, &submitted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return QuizResult{}, notFoundf("quiz result")
		}
		return QuizResult{}, err
	}
	r.SubmittedAt = time.Unix(submitted, 0).UTC()
	if err := json.Unmarshal([]byte(ajson), &r.Answers); err != nil {
		return QuizResult{}, err
	}
	return r, nil
}

func (s *SQLStore) listResults(ctx context.Context, where string, arg any, order string) ([]QuizResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,quiz_id,student_id,score,answers_json,submitted_at
		FROM quiz_results WHERE `+where+` ORDER BY `+order, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []QuizResult{}
	for rows.Next() {
		var r QuizResult
		var ajson string
		var submitted int64
		if err := rows.Scan(&r.ID, &r.QuizID, &r.StudentID, &r.Score, &ajson, &submitted); err != nil {
			return nil, err
		}
		r.SubmittedAt = time.Unix(submitted, 0).UTC()
		if err := json.Unmarshal([]byte(ajson), &r.Answers); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListQuizResults(ctx context.Context, quizID string) ([]QuizResult, error) {
	return s.listResults(ctx, `quiz_id=$1`, quizID, `score DESC, submitted_at`)
}

func (s *SQLStore) ListStudentResults(ctx context.Context, studentID string) ([]QuizResult, error) {
	return s.listResults(ctx, `student_id=$1`, studentID, `submitted_at`)
}

const scheduleCols = `id,topic,department_id,batch_id,instructor,start_time,end_time,meeting_link,meeting_id,passcode,attendance_window_min,created_at`

func (s *SQLStore) PutSchedule(ctx context.Context, sc Schedule) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO schedules
		(`+scheduleCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		sc.ID, sc.Topic, sc.DepartmentID, sc.BatchID, sc.Instructor,
		sc.StartTime.Unix(), sc.EndTime.Unix(), sc.MeetingLink, sc.MeetingID, sc.Passcode,
		sc.WindowMinutes, time.Now().Unix())
	return err
}

func scanSchedule(scan func(...any) error) (Schedule, error) {
	var sc Schedule
	var start, end int64
	err := scan(&sc.ID, &sc.Topic, &sc.DepartmentID, &sc.BatchID, &sc.Instructor,
		&start, &end, &sc.MeetingLink, &sc.MeetingID, &sc.Passcode, &sc.WindowMinutes, &sc.CreatedAt)
	if err != nil {
		return Schedule{}, err
	}
	sc.StartTime = time.Unix(start, 0).UTC()
	sc.EndTime = time.Unix(end, 0).UTC()
	return sc, nil
}

func (s *SQLStore) GetSchedule(ctx context.Context, id string) (Schedule, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scheduleCols+` FROM schedules WHERE id=$1`, id)
	sc, err := scanSchedule(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Schedule{}, notFoundf("scheduled class")
	}
	return sc, err
}

func (s *SQLStore) ListSchedules(ctx context.Context, opts ScheduleListOpts) ([]Schedule, error) {
	query := `SELECT ` + scheduleCols + ` FROM schedules`
	args := []any{}
	if opts.BatchID != "" {
		args = append(args, opts.BatchID)
		query += ` WHERE batch_id=$1`
	}
	query += ` ORDER BY start_time DESC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += ` LIMIT $` + itoa(len(args))
		if opts.Offset > 0 {
			args = append(args, opts.Offset)
			query += ` OFFSET $` + itoa(len(args))
		}
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Schedule{}
	for rows.Next() {
		sc, err := scanSchedule(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateSchedule(ctx context.Context, sc Schedule) error {
	res, err := s.db.ExecContext(ctx, `UPDATE schedules
		SET topic=$1, department_id=$2, batch_id=$3, instructor=$4, start_time=$5, end_time=$6,
		    meeting_link=$7, meeting_id=$8, passcode=$9, attendance_window_min=$10
		WHERE id=$11`,
		sc.Topic, sc.DepartmentID, sc.BatchID, sc.Instructor, sc.StartTime.Unix(), sc.EndTime.Unix(),
		sc.MeetingLink, sc.MeetingID, sc.Passcode, sc.WindowMinutes, sc.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFoundf("scheduled class")
	}
	return nil
}

func (s *SQLStore) DeleteSchedule(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFoundf("scheduled class")
	}
	return nil
}

func (s *SQLStore) InsertAttendance(ctx context.Context, rec AttendanceRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO attendance
		(id,schedule_id,student_id,status,marked_at) VALUES ($1,$2,$3,$4,$5)`,
		rec.ID, rec.ScheduleID, rec.StudentID, rec.Status, rec.MarkedAt.Unix())
	if isUniqueViolation(err) {
		return ErrDuplicateAttempt
	}
	return err
}

func (s *SQLStore) GetAttendance(ctx context.Context, scheduleID, studentID string) (AttendanceRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,schedule_id,student_id,status,marked_at
		FROM attendance WHERE schedule_id=$1 AND student_id=$2`, scheduleID, studentID)
	var rec AttendanceRecord
	var marked int64
	if err := row.Scan(&rec.ID, &rec.ScheduleID, &rec.StudentID, &rec.Status, &marked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AttendanceRecord{}, notFoundf("attendance record")
		}
		return AttendanceRecord{}, err
	}
	rec.MarkedAt = time.Unix(marked, 0).UTC()
	return rec, nil
}

func (s *SQLStore) ListStudentAttendance(ctx context.Context, studentID string) ([]AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,schedule_id,student_id,status,marked_at
		FROM attendance WHERE student_id=$1 ORDER BY marked_at`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []AttendanceRecord{}
	for rows.Next() {
		var rec AttendanceRecord
		var marked int64
		if err := rows.Scan(&rec.ID, &rec.ScheduleID, &rec.StudentID, &rec.Status, &marked); err != nil {
			return nil, err
		}
		rec.MarkedAt = time.Unix(marked, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

const assessmentCols = `id,name,description,deadline,batch_id,created_at`

func (s *SQLStore) PutAssessment(ctx context.Context, a Assessment) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO assessments
		(`+assessmentCols+`) VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.Name, a.Description, a.Deadline.Unix(), a.BatchID, time.Now().Unix())
	return err
}

func scanAssessment(scan func(...any) error) (Assessment, error) {
	var a Assessment
	var deadline int64
	if err := scan(&a.ID, &a.Name, &a.Description, &deadline, &a.BatchID, &a.CreatedAt); err != nil {
		return Assessment{}, err
	}
	a.Deadline = time.Unix(deadline, 0).UTC()
	return a, nil
}

func (s *SQLStore) GetAssessment(ctx context.Context, id string) (Assessment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assessmentCols+` FROM assessments WHERE id=$1`, id)
	a, err := scanAssessment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Assessment{}, notFoundf("assessment")
	}
	return a, err
}

func (s *SQLStore) ListAssessments(ctx context.Context, batchID string) ([]Assessment, error) {
	query := `SELECT ` + assessmentCols + ` FROM assessments`
	args := []any{}
	if batchID != "" {
		args = append(args, batchID)
		query += ` WHERE batch_id=$1`
	}
	query += ` ORDER BY deadline DESC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteAssessmentCascade(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM assessment_submissions WHERE assessment_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM assessments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFoundf("assessment")
	}
	return tx.Commit()
}

func (s *SQLStore) InsertAssessmentSubmission(ctx context.Context, sub AssessmentSubmission) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO assessment_submissions
		(id,assessment_id,student_id,github_link,description,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		sub.ID, sub.AssessmentID, sub.StudentID, sub.GithubLink, sub.Description, sub.SubmittedAt.Unix())
	if isUniqueViolation(err) {
		return ErrDuplicateAttempt
	}
	return err
}

const submissionCols = `id,assessment_id,student_id,github_link,description,submitted_at`

func scanSubmission(scan func(...any) error) (AssessmentSubmission, error) {
	var sub AssessmentSubmission
	var submitted int64
	if err := scan(&sub.ID, &sub.AssessmentID, &sub.StudentID, &sub.GithubLink, &sub.Description, &submitted); err != nil {
		return AssessmentSubmission{}, err
	}
	sub.SubmittedAt = time.Unix(submitted, 0).UTC()
	return sub, nil
}

func (s *SQLStore) GetAssessmentSubmission(ctx context.Context, assessmentID, studentID string) (AssessmentSubmission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+submissionCols+` FROM assessment_submissions
		WHERE assessment_id=$1 AND student_id=$2`, assessmentID, studentID)
	sub, err := scanSubmission(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return AssessmentSubmission{}, notFoundf("assessment submission")
	}
	return sub, err
}

func (s *SQLStore) listSubmissions(ctx context.Context, where string, arg any, order string) ([]AssessmentSubmission, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+submissionCols+` FROM assessment_submissions
		WHERE `+where+` ORDER BY `+order, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []AssessmentSubmission{}
	for rows.Next() {
		sub, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListAssessmentSubmissions(ctx context.Context, assessmentID string) ([]AssessmentSubmission, error) {
	return s.listSubmissions(ctx, `assessment_id=$1`, assessmentID, `submitted_at DESC`)
}

func (s *SQLStore) ListStudentAssessmentSubmissions(ctx context.Context, studentID string) ([]AssessmentSubmission, error) {
	return s.listSubmissions(ctx, `student_id=$1`, studentID, `submitted_at`)
}

func (s *SQLStore) GetStudent(ctx context.Context, id string) (Student, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,username,full_name,email,department_id,batch_id
		FROM users WHERE id=$1 AND role='student'`, id)
	var st Student
	if err := row.Scan(&st.ID, &st.Username, &st.FullName, &st.Email, &st.DepartmentID, &st.BatchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Student{}, notFoundf("student")
		}
		return Student{}, err
	}
	return st, nil
}

func (s *SQLStore) CountBatchStudents(ctx context.Context, batchID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role='student' AND batch_id=$1`, batchID).Scan(&n)
	return n, err
}

func itoa(n int) string { return strconv.Itoa(n) }
