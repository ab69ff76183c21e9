package hash

import "strings"

// Password hashes new passwords with bcrypt and still accepts argon2id
// digests written by earlier deployments.
type Password struct {
	bcrypt   *Bcrypt
	argon2id *Argon2id
}

func NewPassword(b *Bcrypt, a *Argon2id) *Password {
	return &Password{bcrypt: b, argon2id: a}
}

func (p *Password) Hash(plaintext string) ([]byte, error) {
	return p.bcrypt.Hash(plaintext)
}

// Verify picks the algorithm from the digest prefix.
func (p *Password) Verify(hashed, plaintext string) bool {
	if strings.HasPrefix(hashed, argon2idPrefix) {
		return p.argon2id != nil && p.argon2id.Verify(hashed, plaintext)
	}

	return p.bcrypt.Verify(hashed, plaintext)
}
