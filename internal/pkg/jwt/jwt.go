// Package jwt issues and verifies the short-lived access tokens that represent
// an authenticated session, and carries verified claims through a context.
package jwt

import (
	"context"
	"errors"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSigningMethod = errors.New("jwt: unexpected signing method")
	ErrSigningKeyTooShort   = errors.New("jwt: HS512 key must be at least 64 bytes")
	ErrTokenExpired         = errors.New("jwt: token expired")
	ErrInvalidToken         = errors.New("jwt: invalid token")
)

// JWT generates and verifies access tokens.
type JWT interface {
	Generate(uid int64, email string) (string, error)
	Verify(token string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type idGenerator interface {
	Generate() string
}

// Config configures a JWT implementation.
type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	ID        idGenerator
}

// Claims are the registered claims plus the session subject.
type Claims struct {
	libJWT.RegisteredClaims
	UserID    int64  `json:"user_id,string"`
	UserEmail string `json:"user_email"`
}

type claimsKey struct{}

// GetAuth returns the claims placed in ctx by the authentication middleware,
// or nil for anonymous requests.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(claimsKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, clm)
}
