package jwt

import (
	"errors"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

const minHS512KeyLen = 64

// HS512 signs tokens with a shared secret.
type HS512 struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	clock     clocker
	id        idGenerator
	parser    *libJWT.Parser
}

func NewHS512(cfg Config) (*HS512, error) {
	if len(cfg.Secret) < minHS512KeyLen {
		return nil, ErrSigningKeyTooShort
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}

	opts := []libJWT.ParserOption{
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuer(cfg.Issuer),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(cfg.Clock.Now),
	}
	if len(cfg.Audiences) > 0 {
		opts = append(opts, libJWT.WithAudience(cfg.Audiences...))
	}

	return &HS512{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       cfg.TTL,
		clock:     cfg.Clock,
		id:        cfg.ID,
		parser:    libJWT.NewParser(opts...),
	}, nil
}

func (h *HS512) Generate(uid int64, email string) (string, error) {
	now := h.clock.Now()

	claims := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        h.id.Generate(),
			Subject:   strconv.FormatInt(uid, 10),
			Issuer:    h.issuer,
			Audience:  h.audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(h.ttl)),
		},
		UserID:    uid,
		UserEmail: email,
	}

	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, claims).SignedString(h.secret)
}

func (h *HS512) Verify(token string) (Claims, error) {
	var claims Claims

	parsed, err := h.parser.ParseWithClaims(token, &claims, func(t *libJWT.Token) (any, error) {
		if _, ok := t.Method.(*libJWT.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return h.secret, nil
	})
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, errors.Join(ErrInvalidToken, err)
	case !parsed.Valid:
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
