package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/clockin/internal/database"
	"github.com/kozaktomas/clockin/internal/database/mock"
	"github.com/kozaktomas/clockin/internal/web/middleware"
)

func newAuthFixture(t *testing.T) (*AuthHandler, *mock.MockEmployeeRepository, *middleware.SessionManager) {
	t.Helper()
	repo := mock.NewMockEmployeeRepository()
	sm := middleware.NewSessionManager("test-secret", nil)
	t.Cleanup(sm.Stop)
	return NewAuthHandler(repo, sm), repo, sm
}

func TestLogin_Success(t *testing.T) {
	handler, repo, _ := newAuthFixture(t)
	seedEmployee(t, repo, "Priya Raman", "pass123", database.RoleEmployee, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"name": "priya-raman", "password": "pass123"}`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp LoginResponse
	decodeBody(t, rec.Body, &resp)
	if !resp.Success || resp.SessionID == "" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Role != database.RoleEmployee {
		t.Errorf("role = %s, want employee", resp.Role)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value == "" {
		t.Error("login did not set a session cookie")
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"wrong password", `{"name": "priya-raman", "password": "nope"}`, http.StatusUnauthorized},
		{"unknown name", `{"name": "nobody", "password": "pass123"}`, http.StatusUnauthorized},
		{"missing password", `{"name": "priya-raman"}`, http.StatusBadRequest},
		{"missing name", `{"password": "pass123"}`, http.StatusBadRequest},
		{"invalid json", `{not json`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler, repo, _ := newAuthFixture(t)
			seedEmployee(t, repo, "Priya Raman", "pass123", database.RoleEmployee, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			handler.Login(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tc.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestLogout(t *testing.T) {
	handler, _, sm := newAuthFixture(t)

	session, err := sm.CreateSession(t.Context(), 7, database.RoleEmployee)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+session.ID)
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if sm.GetSession(session.ID) != nil {
		t.Error("session survived logout")
	}
}

func TestStatus(t *testing.T) {
	handler, _, sm := newAuthFixture(t)

	// Unauthenticated.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/status", nil)
	rec := httptest.NewRecorder()
	handler.Status(rec, req)

	var resp StatusResponse
	decodeBody(t, rec.Body, &resp)
	if resp.Authenticated {
		t.Error("reported authenticated without a session")
	}

	// Authenticated.
	session, err := sm.CreateSession(t.Context(), 7, database.RoleHR)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/status", nil)
	req.Header.Set("Authorization", "Bearer "+session.ID)
	rec = httptest.NewRecorder()
	handler.Status(rec, req)

	decodeBody(t, rec.Body, &resp)
	if !resp.Authenticated || resp.EmployeeID != 7 || resp.Role != database.RoleHR {
		t.Errorf("unexpected status: %+v", resp)
	}
}
