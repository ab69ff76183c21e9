package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/lock"
)

type fakeRefresh struct {
	entity.RefreshToken
	revoked    bool
	replacedBy *int64
}

type fakeDB struct {
	mu       sync.Mutex
	users    map[string]*entity.UserLoginInfo
	names    map[int64]string
	refresh  map[string]*fakeRefresh
	setCalls int
	err      error
}

func newFakeDB(users ...entity.UserLoginInfo) *fakeDB {
	db := &fakeDB{
		users:   map[string]*entity.UserLoginInfo{},
		names:   map[int64]string{},
		refresh: map[string]*fakeRefresh{},
	}
	for _, u := range users {
		db.users[u.Email] = &u
	}

	return db
}

func (f *fakeDB) user(email string) entity.UserLoginInfo {
	f.mu.Lock()
	defer f.mu.Unlock()

	return *f.users[email]
}

func (f *fakeDB) byID(id int64) *entity.UserLoginInfo {
	for _, u := range f.users {
		if u.ID == id {
			return u
		}
	}

	return nil
}

func (f *fakeDB) GetUserLoginInfo(_ context.Context, email string) (*entity.UserLoginInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[strings.ToLower(email)]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *u

	return &cp, nil
}

func (f *fakeDB) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := f.byID(id)
	if u == nil {
		return nil, goerror.ErrNotFound
	}

	return &entity.User{ID: u.ID, Email: u.Email, FullName: f.names[u.ID], Status: u.Status}, nil
}

func (f *fakeDB) GetUserRefreshToken(_ context.Context, token string) (*entity.UserRefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rt, ok := f.refresh[token]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	u := f.byID(rt.UserID)

	return &entity.UserRefreshToken{
		UserID:                   u.ID,
		UserEmail:                u.Email,
		UserStatus:               u.Status,
		RefreshID:                rt.ID,
		RefreshRevoked:           rt.revoked,
		RefreshReplacedByTokenID: rt.replacedBy,
		RefreshExpiresAt:         rt.ExpiresAt,
	}, nil
}

func (f *fakeDB) SetUserLoginOTP(_ context.Context, userID int64, digest string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	u := f.byID(userID)
	u.OTPCode = digest
	u.OTPExpiresAt = &expiresAt
	f.setCalls++

	return nil
}

func (f *fakeDB) ConsumeUserLoginOTP(_ context.Context, userID int64, digest string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := f.byID(userID)
	if !u.HasPendingOTP() || u.OTPCode != digest || now.After(*u.OTPExpiresAt) {
		return false, nil
	}
	u.OTPCode = ""
	u.OTPExpiresAt = nil

	return true, nil
}

func (f *fakeDB) CreateRefreshToken(_ context.Context, in entity.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.refresh[in.Token] = &fakeRefresh{RefreshToken: in}

	return nil
}

func (f *fakeDB) RotateRefreshToken(_ context.Context, ro entity.RotateRefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, rt := range f.refresh {
		if rt.ID == ro.OldID && !rt.revoked {
			rt.revoked = true
			rt.replacedBy = &ro.NewID
			f.refresh[ro.NewToken] = &fakeRefresh{RefreshToken: entity.RefreshToken{
				ID:        ro.NewID,
				UserID:    ro.UserID,
				Token:     ro.NewToken,
				ExpiresAt: ro.NewExpiresAt,
				Metadata:  ro.Metadata,
			}}

			return nil
		}
	}

	return goerror.ErrNotFound
}

func (f *fakeDB) RevokeRefreshToken(_ context.Context, userID int64, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rt, ok := f.refresh[token]; ok && rt.UserID == userID {
		rt.revoked = true
	}

	return nil
}

func (f *fakeDB) RevokeAllRefreshToken(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, rt := range f.refresh {
		if rt.UserID == userID {
			rt.revoked = true
		}
	}

	return nil
}

func (f *fakeDB) liveRefreshTokens(userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, rt := range f.refresh {
		if rt.UserID == userID && !rt.revoked {
			n++
		}
	}

	return n
}

type fakeMessaging struct {
	mu     sync.Mutex
	events []LoginOTPEvent
	err    error
}

func (f *fakeMessaging) PublishLoginOTP(_ context.Context, msg LoginOTPEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, msg)

	return nil
}

func (f *fakeMessaging) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.events)
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	busy     bool
	err      error
	released int
}

type fakeLease struct {
	l   *fakeLocker
	key string
}

func (f *fakeLocker) Acquire(_ context.Context, key string) (lock.Lease, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if f.busy || f.held[key] {
		return nil, lock.ErrNotAcquired
	}
	if f.held == nil {
		f.held = map[string]bool{}
	}
	f.held[key] = true

	return &fakeLease{l: f, key: key}, nil
}

func (l *fakeLease) Release(context.Context) error {
	l.l.mu.Lock()
	defer l.l.mu.Unlock()

	delete(l.l.held, l.key)
	l.l.released++

	return nil
}

// prefixHash stands in for a password hash: the digest of p is "hashed:"+p.
// Verified records every hash a plaintext was checked against.
type prefixHash struct {
	verified []string
}

func (*prefixHash) Hash(p string) ([]byte, error) { return []byte("hashed:" + p), nil }

func (h *prefixHash) Verify(hashed, p string) bool {
	h.verified = append(h.verified, hashed)
	return hashed == "hashed:"+p
}

type fakeJWT struct{}

func (fakeJWT) Generate(uid int64, email string) (string, error) {
	return fmt.Sprintf("access-%d-%s", uid, email), nil
}

func (fakeJWT) Verify(string) (jwt.Claims, error) {
	return jwt.Claims{}, errors.New("not used")
}

type counterID struct {
	mu sync.Mutex
	n  int64
}

func (c *counterID) Generate() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.n++

	return 1000 + c.n
}

// fixedCodes hands out codes in order and repeats the last one.
type fixedCodes struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (f *fixedCodes) Generate() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}
	code := f.codes[0]
	if len(f.codes) > 1 {
		f.codes = f.codes[1:]
	}

	return code, nil
}
