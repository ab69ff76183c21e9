// Package uid generates identifiers: numeric row IDs, UUIDs for token IDs and
// correlation, and opaque random tokens handed to clients.
package uid

// NumberID generates int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
