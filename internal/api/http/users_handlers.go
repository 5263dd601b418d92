package http

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type studentRow struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	DepartmentID string `json:"department"`
	BatchID      string `json:"batch"`
	Password     string `json:"password,omitempty"` // plaintext, hashed on insert
}

// POST /api/admin/students/bulk
// Accepts either multipart file= (CSV/JSON) or a raw JSON array in the body.
func BulkUpsertStudentsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []studentRow
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				badRequest(w, "file required")
				return
			}
			defer f.Close()
			// sniff simple CSV vs JSON by first non-space byte
			buf := make([]byte, 1)
			if _, err := f.Read(buf); err != nil {
				badRequest(w, "empty file")
				return
			}
			if _, err := f.(io.Seeker).Seek(0, io.SeekStart); err != nil {
				badRequest(w, "unseekable file")
				return
			}
			if buf[0] == '[' || buf[0] == '{' {
				if err := json.NewDecoder(f).Decode(&rows); err != nil {
					badRequest(w, "bad json")
					return
				}
			} else {
				rs, err := parseStudentCSV(f)
				if err != nil {
					badRequest(w, "bad csv: "+err.Error())
					return
				}
				rows = rs
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
				badRequest(w, "expected JSON array or multipart file")
				return
			}
		}
		if len(rows) == 0 {
			writeJSON(w, http.StatusOK, map[string]any{"inserted": 0, "updated": 0})
			return
		}

		ins, upd, err := upsertStudents(r.Context(), db, rows)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"inserted": ins, "updated": upd})
	}
}

// GET /api/admin/students?batch=...
func ListStudentsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batch := r.URL.Query().Get("batch")
		query := `SELECT id,username,full_name,email,department_id,batch_id FROM users WHERE role='student'`
		args := []any{}
		if batch != "" {
			query += ` AND batch_id=$1`
			args = append(args, batch)
		}
		query += ` ORDER BY full_name, username`
		rows, err := db.QueryContext(r.Context(), query, args...)
		if err != nil {
			writeErr(w, err)
			return
		}
		defer rows.Close()
		out := []studentRow{}
		for rows.Next() {
			var s studentRow
			if err := rows.Scan(&s.ID, &s.Username, &s.FullName, &s.Email, &s.DepartmentID, &s.BatchID); err != nil {
				writeErr(w, err)
				return
			}
			out = append(out, s)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func parseStudentCSV(r io.Reader) ([]studentRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"username", "fullname", "department", "batch"} {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	var rows []studentRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := studentRow{
			Username:     rec[idx["username"]],
			FullName:     rec[idx["fullname"]],
			DepartmentID: rec[idx["department"]],
			BatchID:      rec[idx["batch"]],
		}
		if i, ok := idx["id"]; ok {
			row.ID = rec[i]
		}
		if i, ok := idx["email"]; ok {
			row.Email = rec[i]
		}
		if i, ok := idx["password"]; ok {
			row.Password = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func upsertStudents(ctx context.Context, db *sql.DB, rows []studentRow) (inserted, updated int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	now := time.Now().Unix()
	for _, r := range rows {
		if r.Username == "" {
			return inserted, updated, errors.New("username required")
		}
		var phash string
		if r.Password != "" {
			b, e := bcrypt.GenerateFromPassword([]byte(r.Password), 12)
			if e != nil {
				return inserted, updated, e
			}
			phash = string(b)
		}

		var existingID string
		err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username=$1`, r.Username).Scan(&existingID)
		switch {
		case err == nil:
			if phash != "" {
				_, err = tx.ExecContext(ctx, `UPDATE users
					SET full_name=$1, email=$2, department_id=$3, batch_id=$4, password_hash=$5
					WHERE id=$6`,
					r.FullName, r.Email, r.DepartmentID, r.BatchID, phash, existingID)
			} else {
				_, err = tx.ExecContext(ctx, `UPDATE users
					SET full_name=$1, email=$2, department_id=$3, batch_id=$4
					WHERE id=$5`,
					r.FullName, r.Email, r.DepartmentID, r.BatchID, existingID)
			}
			if err != nil {
				return inserted, updated, err
			}
			updated++
		case errors.Is(err, sql.ErrNoRows):
			if phash == "" {
				return inserted, updated, errors.New("password required for new student: " + r.Username)
			}
			id := r.ID
			if id == "" {
				id = uuid.NewString()
			}
			_, err = tx.ExecContext(ctx, `INSERT INTO users
				(id, username, password_hash, role, full_name, email, department_id, batch_id, created_at)
				VALUES ($1,$2,$3,'student',$4,$5,$6,$7,$8)`,
				id, r.Username, phash, r.FullName, r.Email, r.DepartmentID, r.BatchID, now)
			if err != nil {
				return inserted, updated, err
			}
			inserted++
		default:
			return inserted, updated, err
		}
	}
	return
}
