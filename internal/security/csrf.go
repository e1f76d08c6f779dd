package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CSRFHeader carries the token on writes from a signed-in browser. Bearer-token
// clients never send it.
const CSRFHeader = "X-CSRF-Token"

// CSRFGenerator signs a member's session ID with HMAC-SHA256. The web app
// receives the token from login and /api/auth/me and echoes it on every write.
// Nothing is stored, so every server instance sharing CSRF_SECRET accepts it.
type CSRFGenerator struct {
	secret []byte
}

func NewCSRFGenerator(secret string) *CSRFGenerator {
	return &CSRFGenerator{secret: []byte(secret)}
}

// GenerateToken returns the token for a session. It changes when the member
// signs in again, so tokens from an old session stop working.
func (g *CSRFGenerator) GenerateToken(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session ID is required")
	}
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte("csrf:" + sessionID))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// ValidateToken compares in constant time
func (g *CSRFGenerator) ValidateToken(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}
	expected, err := g.GenerateToken(sessionID)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(token))
}
