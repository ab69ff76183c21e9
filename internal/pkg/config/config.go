// Package config exposes typed, read-only access to the service settings.
package config

import (
	"io"
	"time"
)

// Config reads settings by dotted key ("modules.identity.login_otp_ttl_minutes").
// Missing keys yield the zero value of the requested type.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint16(key string) uint16
	GetFloat64(key string) float64

	// Duration getters interpret the stored integer in the named unit.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetDay(key string) time.Duration

	// GetBinary decodes a base64 value.
	GetBinary(key string) []byte
	// GetArray splits "a, b,c" into trimmed, non-empty elements.
	GetArray(key string) []string
	// GetMap parses "k1:v1,k2:v2".
	GetMap(key string) map[string]string
}
