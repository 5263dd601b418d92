package http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func orgRouterFor(t *testing.T, dbh *sql.DB) chi.Router {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/api/admin/departments", CreateDepartmentHandler(dbh))
	r.Get("/api/admin/departments", ListDepartmentsHandler(dbh))
	r.Put("/api/admin/departments/{departmentID}", UpdateDepartmentHandler(dbh))
	r.Delete("/api/admin/departments/{departmentID}", DeleteDepartmentHandler(dbh))
	r.Post("/api/admin/batches", CreateBatchHandler(dbh))
	r.Get("/api/admin/batches", ListBatchesHandler(dbh))
	r.Put("/api/admin/batches/{batchID}", UpdateBatchHandler(dbh))
	r.Delete("/api/admin/batches/{batchID}", DeleteBatchHandler(dbh))
	return r
}

func TestDepartmentCRUD(t *testing.T) {
	dbh := newTestDB(t)
	r := orgRouterFor(t, dbh)

	create := CreateDepartmentHandler(dbh)
	do := func(h http.HandlerFunc, method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec
	}

	rec := do(create, "POST", "/api/admin/departments", `{"name":"Computer Science"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var dept departmentRow
	if err := json.Unmarshal(rec.Body.Bytes(), &dept); err != nil {
		t.Fatal(err)
	}
	if dept.ID == "" || dept.Name != "Computer Science" {
		t.Fatalf("dept = %+v", dept)
	}

	// Names are unique.
	rec = do(create, "POST", "/api/admin/departments", `{"name":"Computer Science"}`)
	if rec.Code != http.StatusBadRequest || decodeMessage(t, rec) != "Department already exists" {
		t.Fatalf("duplicate: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec := do(create, "POST", "/api/admin/departments", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty name status = %d", rec.Code)
	}

	rec = do(ListDepartmentsHandler(dbh), "GET", "/api/admin/departments", "")
	var list []departmentRow
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("list = %+v", list)
	}

	// Deletion is refused while students reference the department.
	if _, err := dbh.Exec(`INSERT INTO users (id,username,password_hash,role,department_id,created_at)
		VALUES ('alice','alice','x','student',$1,0)`, dept.ID); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("DELETE", "/api/admin/departments/"+dept.ID, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest || decodeMessage(t, rec) != "Cannot delete department with assigned students" {
		t.Fatalf("delete with students: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if _, err := dbh.Exec(`DELETE FROM users WHERE id='alice'`); err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest("DELETE", "/api/admin/departments/"+dept.ID, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest("DELETE", "/api/admin/departments/"+dept.ID, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing status = %d", rec.Code)
	}
}

func TestBatchCRUD(t *testing.T) {
	dbh := newTestDB(t)
	r := orgRouterFor(t, dbh)

	if _, err := dbh.Exec(`INSERT INTO departments (id,name,created_at) VALUES ('cse','Computer Science',0)`); err != nil {
		t.Fatal(err)
	}

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	body := `{"name":"Summer Interns 2025","department":"cse",
		"startTime":"` + start.Format(time.RFC3339) + `",
		"endTime":"` + start.AddDate(0, 3, 0).Format(time.RFC3339) + `",
		"instructorName":"Prof. K","instructorPosition":"Lead Instructor"}`

	req := httptest.NewRequest("POST", "/api/admin/batches", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var batch batchRow
	if err := json.Unmarshal(rec.Body.Bytes(), &batch); err != nil {
		t.Fatal(err)
	}

	req = httptest.NewRequest("POST", "/api/admin/batches", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest || decodeMessage(t, rec) != "Batch with this name already exists" {
		t.Fatalf("duplicate: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest("GET", "/api/admin/batches", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var list []batchRow
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].DepartmentName != "Computer Science" {
		t.Fatalf("list = %+v", list)
	}

	updated := strings.Replace(body, "Summer Interns 2025", "Summer Interns 2025 (rev)", 1)
	req = httptest.NewRequest("PUT", "/api/admin/batches/"+batch.ID, strings.NewReader(updated))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest("DELETE", "/api/admin/batches/"+batch.ID, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || decodeMessage(t, rec) != "Batch removed" {
		t.Fatalf("delete: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest("DELETE", "/api/admin/batches/"+batch.ID, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing status = %d", rec.Code)
	}
}
