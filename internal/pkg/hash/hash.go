// Package hash turns secrets into storable digests and checks plaintext
// against them. Password hashes are salted (bcrypt, argon2id); token digests
// are keyed and deterministic (HMAC-SHA256) so they can be looked up.
package hash

// Hash produces and checks digests of secrets.
type Hash interface {
	// Hash returns the encoded digest of plaintext.
	Hash(plaintext string) ([]byte, error)
	// Verify reports whether plaintext matches the encoded digest.
	Verify(hashed, plaintext string) bool
}
