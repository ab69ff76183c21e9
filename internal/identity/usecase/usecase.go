package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/lock"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	msgInvalidCredentials  = "The provided credentials are incorrect."
	msgEmailNotVerified    = "Email not verified. Please verify your email."
	msgUserNotFound        = "No user found with this email."
	msgInvalidOrExpiredOTP = "Invalid or expired OTP."
	msgLoginInProgress     = "Another login attempt is in progress."
	msgInvalidRefresh      = "Invalid or expired refresh token."
	msgAuthRequired        = "Authentication required."
)

type LoginOTPEvent struct {
	UserID    int64
	Email     string
	Code      string
	ExpiresAt time.Time
}

type repoMessaging interface {
	PublishLoginOTP(ctx context.Context, msg LoginOTPEvent) error
}

type repoDB interface {
	GetUserLoginInfo(ctx context.Context, email string) (*entity.UserLoginInfo, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetUserRefreshToken(ctx context.Context, token string) (*entity.UserRefreshToken, error)

	SetUserLoginOTP(ctx context.Context, userID int64, digest string, expiresAt time.Time) error
	ConsumeUserLoginOTP(ctx context.Context, userID int64, digest string, now time.Time) (bool, error)

	CreateRefreshToken(ctx context.Context, in entity.RefreshToken) error
	RotateRefreshToken(ctx context.Context, ro entity.RotateRefreshToken) error
	RevokeRefreshToken(ctx context.Context, userID int64, token string) error
	RevokeAllRefreshToken(ctx context.Context, userID int64) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	locker        lock.Locker
	validator     validator.Validator
	cfg           config.Config
	password      hash.Hash
	hmac          hash.Hash
	otp           otp.Generator
	uid           uid.NumberID
	opaque        uid.StringID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation

	// dummyPassword is verified against when the email is unknown, so both
	// credential failures cost one password check.
	dummyPassword string
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Locker        lock.Locker
	Validator     validator.Validator
	Config        config.Config
	Password      hash.Hash
	HMAC          hash.Hash
	OTP           otp.Generator
	UID           uid.NumberID
	Opaque        uid.StringID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	uc := &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		locker:        dep.Locker,
		validator:     dep.Validator,
		cfg:           dep.Config,
		password:      dep.Password,
		hmac:          dep.HMAC,
		otp:           dep.OTP,
		uid:           dep.UID,
		opaque:        dep.Opaque,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
	}

	if h, err := dep.Password.Hash("otpgate-unknown-account"); err == nil {
		uc.dummyPassword = string(h)
	}

	return uc
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// withEmailLock runs fn while holding the per-email login lock, so concurrent
// issue and verify calls for one account are serialized.
func (s *Usecase) withEmailLock(ctx context.Context, email string, fn func(context.Context) error) error {
	lease, err := s.locker.Acquire(ctx, "login_otp:"+email)
	if errors.Is(err, lock.ErrNotAcquired) {
		slog.WarnContext(ctx, "login otp lock is busy", "email", email)
		return goerror.NewBusiness(msgLoginInProgress, goerror.CodeTooManyRequest)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire login otp lock", "email", email, "error", err)
		return goerror.NewServer(err)
	}
	defer func() {
		if rErr := lease.Release(context.WithoutCancel(ctx)); rErr != nil {
			slog.WarnContext(ctx, "failed to release login otp lock", "email", email, "error", rErr)
		}
	}()

	return fn(ctx)
}

func (s *Usecase) ensureUserStatusAllowed(ctx context.Context, userID int64, status entity.UserStatus) error {
	switch status.Ensure() {
	case entity.UserStatusActive:
		return nil

	case entity.UserStatusUnverified:
		slog.WarnContext(ctx, "user account is unverified", "user_id", userID)
		return goerror.NewBusiness(msgEmailNotVerified, goerror.CodeForbidden)

	case entity.UserStatusBanned:
		slog.WarnContext(ctx, "user account is banned", "user_id", userID)
		return goerror.NewBusiness("Account is banned.", goerror.CodeForbidden)

	default:
		slog.WarnContext(ctx, "user account is not active", "user_id", userID, "status", status.String())
		return goerror.NewBusiness("Account is not active.", goerror.CodeForbidden)
	}
}

// issueSession creates the access token and a fresh refresh token for user.
func (s *Usecase) issueSession(ctx context.Context, userID int64, email string, meta map[string]any) (*SessionOutput, error) {
	acToken, err := s.jwt.Generate(userID, email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	refToken := s.opaque.Generate()
	refTokenHash, err := s.hmac.Hash(refToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.CreateRefreshToken(ctx, entity.RefreshToken{
		ID:        s.uid.Generate(),
		UserID:    userID,
		Token:     string(refTokenHash),
		ExpiresAt: s.clock.Now().Add(s.cfg.GetDay("modules.identity.refresh_token_ttl_days")),
		Metadata:  meta,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create refresh token", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &SessionOutput{AccessToken: acToken, RefreshToken: refToken}, nil
}

// SessionOutput is the token pair handed to a freshly authenticated client.
type SessionOutput struct {
	AccessToken  string
	RefreshToken string
}

// ClientMeta describes the client a session was issued to.
type ClientMeta struct {
	IP        string
	UserAgent string
}

func (m ClientMeta) toMap() map[string]any {
	return map[string]any{"ip": m.IP, "user_agent": m.UserAgent}
}
