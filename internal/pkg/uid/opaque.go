package uid

import (
	"crypto/rand"
	"encoding/hex"
)

// OpaqueLen is the length of tokens produced by Opaque.
const OpaqueLen = 64

// Opaque generates 256-bit random tokens encoded as 64 hex characters. They
// carry no structure and are only ever stored as keyed digests.
type Opaque struct{}

func NewOpaque() *Opaque {
	return &Opaque{}
}

func (*Opaque) Generate() string {
	var b [OpaqueLen / 2]byte
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(b[:])

	return hex.EncodeToString(b[:])
}
