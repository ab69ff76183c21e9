// Package lock provides short-lived mutual exclusion keyed by an arbitrary
// string, backed by Redis.
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

var (
	// ErrNotAcquired is returned when the key stays held past every retry.
	ErrNotAcquired = errors.New("lock: not acquired")
	// ErrNotHeld is returned by Release when the lock expired or changed owner.
	ErrNotHeld = errors.New("lock: not held")
)

// Locker serializes work on a key.
type Locker interface {
	Acquire(ctx context.Context, key string) (Lease, error)
}

// Lease is a held lock. Release must be called once the work is done.
type Lease interface {
	Release(ctx context.Context) error
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Config struct {
	// Prefix namespaces every key, e.g. "otpgate:lock:".
	Prefix string
	// TTL bounds how long a crashed holder can block others.
	TTL time.Duration
	// RetryInterval and MaxRetries shape how long Acquire waits for a busy key.
	RetryInterval time.Duration
	MaxRetries    uint64
}

// Redis implements Locker with SET NX PX and a compare-and-delete release.
type Redis struct {
	client redis.UniversalClient
	cfg    Config
}

func NewRedis(client redis.UniversalClient, cfg Config) *Redis {
	if cfg.Prefix == "" {
		cfg.Prefix = "lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 50 * time.Millisecond
	}

	return &Redis{client: client, cfg: cfg}
}

func (r *Redis) Acquire(ctx context.Context, key string) (Lease, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	fk := r.cfg.Prefix + key
	b := retry.WithMaxRetries(r.cfg.MaxRetries, retry.NewConstant(r.cfg.RetryInterval))

	err = retry.Do(ctx, b, func(ctx context.Context) error {
		ok, err := r.client.SetNX(ctx, fk, token, r.cfg.TTL).Result()
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(ErrNotAcquired)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &lease{client: r.client, key: fk, token: token}, nil
}

type lease struct {
	client redis.UniversalClient
	key    string
	token  string
}

func (l *lease) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
