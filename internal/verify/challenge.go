package verify

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	mathrand "math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Challenge identifiers. The catalog with the human-readable instructions is
// embedded from challenges.yaml.
const (
	ChallengeBlinkTwice = "blink_twice"
	ChallengeTurnLeft   = "turn_left"
	ChallengeTurnRight  = "turn_right"
	ChallengeNod        = "nod_up_down"
)

//go:embed challenges.yaml
var challengesYAML []byte

type challengeCatalog struct {
	Challenges map[string]string `yaml:"challenges"`
}

// loadChallengeCatalog parses the embedded challenge set and returns the
// instruction map plus the ids in stable order.
func loadChallengeCatalog() (map[string]string, []string) {
	var catalog challengeCatalog
	if err := yaml.Unmarshal(challengesYAML, &catalog); err != nil {
		// Embedded file, cannot fail in practice.
		panic("failed to unmarshal embedded challenges.yaml: " + err.Error())
	}
	ids := make([]string, 0, len(catalog.Challenges))
	for id := range catalog.Challenges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return catalog.Challenges, ids
}

// Challenge is an issued liveness challenge. The token binds the challenge
// to the issuing session, carries an expiry and is single use, so satisfied
// challenges cannot be replayed with stale frames.
type Challenge struct {
	ID          string    `json:"id"`
	Instruction string    `json:"instruction"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Challenge token validation errors. All of them fail closed: the caller
// must request a fresh challenge.
var (
	ErrChallengeInvalid  = errors.New("challenge token invalid")
	ErrChallengeExpired  = errors.New("challenge token expired")
	ErrChallengeReplayed = errors.New("challenge token already used")
	ErrChallengeSession  = errors.New("challenge token issued for a different session")
)

// challengeClaims is the signed token payload.
type challengeClaims struct {
	ChallengeID string `json:"challenge_id"`
	SessionID   string `json:"session_id"`
	Nonce       string `json:"nonce"`
	ExpiresAt   int64  `json:"expires_at"`
}

// ChallengeManager issues random liveness challenges as HMAC-signed,
// session-bound, short-lived, single-use tokens and redeems them at
// verification time.
type ChallengeManager struct {
	secret       []byte
	ttl          time.Duration
	instructions map[string]string
	ids          []string

	mu   sync.Mutex
	used map[string]time.Time // redeemed nonce -> token expiry, for replay detection
	now  func() time.Time
}

// NewChallengeManager creates a challenge manager signing tokens with the
// given secret.
func NewChallengeManager(secret string, ttl time.Duration) *ChallengeManager {
	instructions, ids := loadChallengeCatalog()
	return &ChallengeManager{
		secret:       []byte(secret),
		ttl:          ttl,
		instructions: instructions,
		ids:          ids,
		used:         make(map[string]time.Time),
		now:          time.Now,
	}
}

// Issue selects a challenge uniformly at random and wraps it in a signed
// token bound to the given session.
func (m *ChallengeManager) Issue(sessionID string) (*Challenge, error) {
	id := m.ids[mathrand.IntN(len(m.ids))]

	nonceBytes := make([]byte, 16)
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, fmt.Errorf("generate challenge nonce: %w", err)
	}

	expiresAt := m.now().Add(m.ttl)
	claims := challengeClaims{
		ChallengeID: id,
		SessionID:   sessionID,
		Nonce:       base64.RawURLEncoding.EncodeToString(nonceBytes),
		ExpiresAt:   expiresAt.Unix(),
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("marshal challenge claims: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)

	return &Challenge{
		ID:          id,
		Instruction: m.instructions[id],
		Token:       encoded + "." + m.sign(encoded),
		ExpiresAt:   expiresAt,
	}, nil
}

// Redeem validates a challenge token against the calling session and marks
// it used. It returns the challenge id the frames must be judged against.
func (m *ChallengeManager) Redeem(token, sessionID string) (string, error) {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok || !hmac.Equal([]byte(signature), []byte(m.sign(encoded))) {
		return "", ErrChallengeInvalid
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrChallengeInvalid
	}
	var claims challengeClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", ErrChallengeInvalid
	}

	now := m.now()
	if now.Unix() > claims.ExpiresAt {
		return "", ErrChallengeExpired
	}
	if claims.SessionID != sessionID {
		return "", ErrChallengeSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneUsedLocked(now)
	if _, seen := m.used[claims.Nonce]; seen {
		return "", ErrChallengeReplayed
	}
	m.used[claims.Nonce] = time.Unix(claims.ExpiresAt, 0)

	return claims.ChallengeID, nil
}

// Instruction returns the human-readable instruction for a challenge id.
func (m *ChallengeManager) Instruction(id string) string {
	return m.instructions[id]
}

// pruneUsedLocked drops redeemed nonces whose tokens have expired anyway.
func (m *ChallengeManager) pruneUsedLocked(now time.Time) {
	for nonce, expiry := range m.used {
		if now.After(expiry) {
			delete(m.used, nonce)
		}
	}
}

func (m *ChallengeManager) sign(data string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
