package hash

import (
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes passwords with bcrypt. A pepper, when set, is appended to the
// plaintext on both hash and verify and must stay out of the database.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt returns a bcrypt hasher. A cost outside bcrypt's accepted range
// falls back to bcrypt.DefaultCost.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &Bcrypt{cost: cost, pepper: pepper}
}

func (b *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext+b.pepper), b.cost)
}

func (b *Bcrypt) Verify(hashed, plaintext string) bool {
	if hashed == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext+b.pepper)) == nil
}
