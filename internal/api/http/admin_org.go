package http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Departments and batches are the organizational axes every quiz, schedule and
// student hangs off. They are managed here directly against the users table's
// sibling tables; the assess package only ever sees their IDs.

type departmentRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// POST /api/admin/departments
func CreateDepartmentHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name" validate:"required"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}

		var exists int
		if err := db.QueryRowContext(r.Context(),
			`SELECT COUNT(*) FROM departments WHERE name=$1`, req.Name).Scan(&exists); err != nil {
			writeErr(w, err)
			return
		}
		if exists > 0 {
			badRequest(w, "Department already exists")
			return
		}

		d := departmentRow{ID: uuid.NewString(), Name: req.Name}
		if _, err := db.ExecContext(r.Context(),
			`INSERT INTO departments (id,name,created_at) VALUES ($1,$2,$3)`,
			d.ID, d.Name, time.Now().Unix()); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, d)
	}
}

// GET /api/admin/departments
func ListDepartmentsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.QueryContext(r.Context(), `SELECT id,name FROM departments ORDER BY name`)
		if err != nil {
			writeErr(w, err)
			return
		}
		defer rows.Close()
		out := []departmentRow{}
		for rows.Next() {
			var d departmentRow
			if err := rows.Scan(&d.ID, &d.Name); err != nil {
				writeErr(w, err)
				return
			}
			out = append(out, d)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// PUT /api/admin/departments/{departmentID}
func UpdateDepartmentHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name" validate:"required"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}
		id := chi.URLParam(r, "departmentID")
		res, err := db.ExecContext(r.Context(),
			`UPDATE departments SET name=$1 WHERE id=$2`, req.Name, id)
		if err != nil {
			writeErr(w, err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Department not found"})
			return
		}
		writeJSON(w, http.StatusOK, departmentRow{ID: id, Name: req.Name})
	}
}

// DELETE /api/admin/departments/{departmentID}
// Refused while students are still assigned to the department.
func DeleteDepartmentHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "departmentID")

		var assigned int
		if err := db.QueryRowContext(r.Context(),
			`SELECT COUNT(*) FROM users WHERE department_id=$1`, id).Scan(&assigned); err != nil {
			writeErr(w, err)
			return
		}
		if assigned > 0 {
			badRequest(w, "Cannot delete department with assigned students")
			return
		}

		res, err := db.ExecContext(r.Context(), `DELETE FROM departments WHERE id=$1`, id)
		if err != nil {
			writeErr(w, err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Department not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Department removed"})
	}
}

type batchRow struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	DepartmentID       string    `json:"department"`
	DepartmentName     string    `json:"departmentName,omitempty"`
	StartTime          time.Time `json:"startTime"`
	EndTime            time.Time `json:"endTime"`
	InstructorName     string    `json:"instructorName"`
	InstructorPosition string    `json:"instructorPosition"`
}

type batchReq struct {
	Name               string    `json:"name" validate:"required"`
	DepartmentID       string    `json:"department" validate:"required"`
	StartTime          time.Time `json:"startTime" validate:"required"`
	EndTime            time.Time `json:"endTime" validate:"required"`
	InstructorName     string    `json:"instructorName" validate:"required"`
	InstructorPosition string    `json:"instructorPosition" validate:"required"`
}

// POST /api/admin/batches
func CreateBatchHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}

		var exists int
		if err := db.QueryRowContext(r.Context(),
			`SELECT COUNT(*) FROM batches WHERE name=$1`, req.Name).Scan(&exists); err != nil {
			writeErr(w, err)
			return
		}
		if exists > 0 {
			badRequest(w, "Batch with this name already exists")
			return
		}

		b := batchRow{
			ID:                 uuid.NewString(),
			Name:               req.Name,
			DepartmentID:       req.DepartmentID,
			StartTime:          req.StartTime.UTC(),
			EndTime:            req.EndTime.UTC(),
			InstructorName:     req.InstructorName,
			InstructorPosition: req.InstructorPosition,
		}
		_, err := db.ExecContext(r.Context(), `INSERT INTO batches
			(id,name,department_id,start_time,end_time,instructor_name,instructor_position,created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			b.ID, b.Name, b.DepartmentID, b.StartTime.Unix(), b.EndTime.Unix(),
			b.InstructorName, b.InstructorPosition, time.Now().Unix())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

// GET /api/admin/batches — department name joined in, newest first.
func ListBatchesHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.QueryContext(r.Context(), `SELECT
			b.id, b.name, b.department_id, COALESCE(d.name,''), b.start_time, b.end_time,
			b.instructor_name, b.instructor_position
			FROM batches b LEFT JOIN departments d ON d.id = b.department_id
			ORDER BY b.start_time DESC`)
		if err != nil {
			writeErr(w, err)
			return
		}
		defer rows.Close()
		out := []batchRow{}
		for rows.Next() {
			var b batchRow
			var start, end int64
			if err := rows.Scan(&b.ID, &b.Name, &b.DepartmentID, &b.DepartmentName,
				&start, &end, &b.InstructorName, &b.InstructorPosition); err != nil {
				writeErr(w, err)
				return
			}
			b.StartTime = time.Unix(start, 0).UTC()
			b.EndTime = time.Unix(end, 0).UTC()
			out = append(out, b)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// PUT /api/admin/batches/{batchID}
func UpdateBatchHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}
		id := chi.URLParam(r, "batchID")
		res, err := db.ExecContext(r.Context(), `UPDATE batches
			SET name=$1, department_id=$2, start_time=$3, end_time=$4,
			    instructor_name=$5, instructor_position=$6
			WHERE id=$7`,
			req.Name, req.DepartmentID, req.StartTime.Unix(), req.EndTime.Unix(),
			req.InstructorName, req.InstructorPosition, id)
		if err != nil {
			writeErr(w, err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Batch not found"})
			return
		}
		writeJSON(w, http.StatusOK, batchRow{
			ID:                 id,
			Name:               req.Name,
			DepartmentID:       req.DepartmentID,
			StartTime:          req.StartTime.UTC(),
			EndTime:            req.EndTime.UTC(),
			InstructorName:     req.InstructorName,
			InstructorPosition: req.InstructorPosition,
		})
	}
}

// DELETE /api/admin/batches/{batchID}
func DeleteBatchHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := db.ExecContext(r.Context(),
			`DELETE FROM batches WHERE id=$1`, chi.URLParam(r, "batchID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Batch not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Batch removed"})
	}
}
