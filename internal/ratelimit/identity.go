package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// Identity strategies
const (
	StrategySession = "session"
	StrategyEmail   = "email"
)

// EmailKey derives a deterministic client identity from an email address:
// a sha256 digest of the trimmed, lowercased address truncated to 16 hex
// characters. The same sender always maps to the same key.
func EmailKey(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:16]
}

// NewSessionToken issues a random opaque session identity
func NewSessionToken() string {
	return uuid.NewString()
}

// ParseSessionToken validates a client-supplied session token. A corrupted
// or tampered token fails open: the caller issues a fresh identity instead
// of rejecting the request.
func ParseSessionToken(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if _, err := uuid.Parse(raw); err != nil {
		return "", false
	}
	return raw, true
}
