package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2idPrefix = "$argon2id$"

var errArgon2idFormat = errors.New("hash: malformed argon2id digest")

// Argon2id hashes passwords with argon2id using the PHC string format
// ($argon2id$v=19$m=..,t=..,p=..$salt$key).
type Argon2id struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLen     uint32
	keyLen      uint32
	pepper      string
}

// NewArgon2id returns an argon2id hasher with 64MB memory, 3 passes and 2 lanes.
func NewArgon2id(pepper string) *Argon2id {
	return &Argon2id{
		memory:      64 * 1024,
		iterations:  3,
		parallelism: 2,
		saltLen:     16,
		keyLen:      32,
		pepper:      pepper,
	}
}

func (a *Argon2id) Hash(plaintext string) ([]byte, error) {
	salt := make([]byte, a.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("hash: read salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext+a.pepper), salt, a.iterations, a.memory, a.parallelism, a.keyLen)

	return fmt.Appendf(nil, "%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix, argon2.Version, a.memory, a.iterations, a.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (a *Argon2id) Verify(hashed, plaintext string) bool {
	p, err := parseArgon2id(hashed)
	if err != nil {
		return false
	}

	got := argon2.IDKey([]byte(plaintext+a.pepper), p.salt, p.iterations, p.memory, p.parallelism, uint32(len(p.key)))

	return subtle.ConstantTimeCompare(p.key, got) == 1
}

type argon2idParams struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parseArgon2id(encoded string) (*argon2idParams, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, errArgon2idFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, errArgon2idFormat
	}

	p := &argon2idParams{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return nil, errArgon2idFormat
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, errArgon2idFormat
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return nil, errArgon2idFormat
	}

	return p, nil
}
