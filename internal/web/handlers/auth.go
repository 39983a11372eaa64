package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/kozaktomas/clockin/internal/auth"
	"github.com/kozaktomas/clockin/internal/database"
	"github.com/kozaktomas/clockin/internal/web/middleware"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	employees      database.EmployeeRepository
	sessionManager *middleware.SessionManager
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(employees database.EmployeeRepository, sm *middleware.SessionManager) *AuthHandler {
	return &AuthHandler{
		employees:      employees,
		sessionManager: sm,
	}
}

// loginRequest represents a login request
type loginRequest struct {
	name     string
	password string
}

func (l *loginRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal login request: %w", err)
	}
	l.name = raw["name"]
	l.password = raw["password"]
	return nil
}

// LoginResponse represents a login response
type LoginResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	Role      string `json:"role,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Login authenticates an employee by name and password
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if req.name == "" || req.password == "" {
		respondError(w, http.StatusBadRequest, "name and password are required")
		return
	}

	emp, err := h.employees.GetByName(r.Context(), req.name)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusInternalServerError, "failed to look up employee")
		return
	}
	// Verify against a dummy hash on unknown names so response timing does
	// not reveal who is enrolled.
	if emp == nil {
		auth.VerifyPassword("$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", req.password)
		respondJSON(w, http.StatusUnauthorized, LoginResponse{Success: false, Error: "invalid credentials"})
		return
	}
	if !auth.VerifyPassword(emp.PasswordHash, req.password) {
		log.Printf("failed login attempt for %s", sanitizeForLog(req.name))
		respondJSON(w, http.StatusUnauthorized, LoginResponse{Success: false, Error: "invalid credentials"})
		return
	}

	session, err := h.sessionManager.CreateSession(r.Context(), emp.ID, emp.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.sessionManager.SetSessionCookie(w, session)

	respondJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		SessionID: session.ID,
		Role:      session.Role,
		ExpiresAt: session.ExpiresAt.Format("2006-01-02T15:04:05Z"),
	})
}

// Logout handles employee logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session != nil {
		h.sessionManager.DeleteSession(session.ID)
	}

	h.sessionManager.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// StatusResponse represents the auth status response
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	EmployeeID    int64  `json:"employee_id,omitempty"`
	Role          string `json:"role,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

// Status checks if the employee is authenticated by validating the session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondJSON(w, http.StatusOK, StatusResponse{Authenticated: false})
		return
	}
	respondJSON(w, http.StatusOK, StatusResponse{
		Authenticated: true,
		EmployeeID:    session.EmployeeID,
		Role:          session.Role,
		ExpiresAt:     session.ExpiresAt.Format("2006-01-02T15:04:05Z"),
	})
}
