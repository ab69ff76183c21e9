package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HMACSHA256 produces deterministic hex digests keyed by a server secret. It
// suits short-lived tokens and codes that must be matched by equality in SQL.
type HMACSHA256 struct {
	secret []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

func (h *HMACSHA256) Hash(plaintext string) ([]byte, error) {
	return h.sum(plaintext), nil
}

func (h *HMACSHA256) Verify(hashed, plaintext string) bool {
	return subtle.ConstantTimeCompare([]byte(hashed), h.sum(plaintext)) == 1
}

func (h *HMACSHA256) sum(plaintext string) []byte {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(plaintext))

	return []byte(hex.EncodeToString(mac.Sum(nil)))
}
