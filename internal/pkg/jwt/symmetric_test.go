package jwt

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticID string

func (s staticID) Generate() string { return string(s) }

func newHS512(t *testing.T, c clocker) *HS512 {
	t.Helper()

	j, err := NewHS512(Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "otpgate",
		Audiences: []string{"otpgate-web"},
		TTL:       10 * time.Minute,
		Clock:     c,
		ID:        staticID("jti-1"),
	})
	require.NoError(t, err)

	return j
}

func TestNewHS512_ShortKey(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short"), Clock: clock.New()})
	assert.ErrorIs(t, err, ErrSigningKeyTooShort)
}

func TestHS512_RoundTrip(t *testing.T) {
	c := clock.NewManual(time.Now().UTC().Truncate(time.Second))
	j := newHS512(t, c)

	token, err := j.Generate(42, "a@x.com")
	require.NoError(t, err)

	claims, err := j.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "a@x.com", claims.UserEmail)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "jti-1", claims.ID)
}

func TestHS512_Expired(t *testing.T) {
	c := clock.NewManual(time.Now().UTC().Truncate(time.Second))
	j := newHS512(t, c)

	token, err := j.Generate(42, "a@x.com")
	require.NoError(t, err)

	c.Advance(11 * time.Minute)

	_, err = j.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestHS512_Tampered(t *testing.T) {
	j := newHS512(t, clock.New())

	token, err := j.Generate(1, "a@x.com")
	require.NoError(t, err)

	_, err = j.Verify(token[:len(token)-2] + "xx")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthContext(t *testing.T) {
	assert.Nil(t, GetAuth(context.Background()))

	ctx := SetAuth(context.Background(), Claims{UserID: 7})
	require.NotNil(t, GetAuth(ctx))
	assert.Equal(t, int64(7), GetAuth(ctx).UserID)
}
