package handlers

import (
	"net/http"
	"time"

	"github.com/kozaktomas/clockin/internal/verify"
	"github.com/kozaktomas/clockin/internal/web/middleware"
)

// ChallengeHandler issues liveness challenges
type ChallengeHandler struct {
	challenges *verify.ChallengeManager
}

// NewChallengeHandler creates a new challenge handler
func NewChallengeHandler(challenges *verify.ChallengeManager) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges}
}

// ChallengeResponse represents an issued liveness challenge
type ChallengeResponse struct {
	Challenge   string `json:"challenge"`
	Instruction string `json:"instruction"`
	Token       string `json:"token"`
	ExpiresAt   string `json:"expires_at"`
}

// Issue hands out a random challenge bound to the caller's session. The
// returned token must come back with the attendance request.
func (h *ChallengeHandler) Issue(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	challenge, err := h.challenges.Issue(session.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue challenge")
		return
	}

	respondJSON(w, http.StatusOK, ChallengeResponse{
		Challenge:   challenge.ID,
		Instruction: challenge.Instruction,
		Token:       challenge.Token,
		ExpiresAt:   challenge.ExpiresAt.Format(time.RFC3339),
	})
}
