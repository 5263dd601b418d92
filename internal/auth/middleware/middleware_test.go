package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campus-hub/campushub-lms/internal/rbac"
)

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("test-secret")
	tok, err := a.IssueJWT("alice", "student")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := a.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Sub != "alice" || claims.Role != "student" {
		t.Fatalf("claims = %+v", claims)
	}

	// A token signed with another key must not verify.
	other := NewAuthService("other-secret")
	if _, err := other.Parse(tok); err == nil {
		t.Fatal("foreign token accepted")
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("test-secret")
	var gotSub, gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = rbac.SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	})
	handler := JWTMiddleware(a)(next)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no header status = %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", rec.Code)
	}

	tok, err := a.IssueJWT("alice", "student")
	if err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token status = %d", rec.Code)
	}
	if gotSub != "alice" || gotRole != "student" {
		t.Fatalf("context identity = %q/%q", gotSub, gotRole)
	}
}
