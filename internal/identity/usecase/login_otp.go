package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type RequestLoginOTPInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type RequestLoginOTPOutput struct {
	ExpiresAt time.Time
}

// RequestLoginOTP checks the password, then issues a new login code that
// replaces any pending one and hands it to the notification module. The
// code itself is never returned.
func (s *Usecase) RequestLoginOTP(ctx context.Context, in RequestLoginOTPInput) (*RequestLoginOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestLoginOTP")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	var out *RequestLoginOTPOutput
	err := s.withEmailLock(ctx, in.Email, func(ctx context.Context) error {
		var err error
		out, err = s.requestLoginOTP(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Usecase) requestLoginOTP(ctx context.Context, in RequestLoginOTPInput) (*RequestLoginOTPOutput, error) {
	user, err := s.repoDB.GetUserLoginInfo(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "email", in.Email)
		s.password.Verify(s.dummyPassword, in.Password)
		return nil, goerror.NewBusiness(msgInvalidCredentials, goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user login info", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(user.Password, in.Password) {
		slog.WarnContext(ctx, "password user account not match", "user_id", user.ID)
		return nil, goerror.NewBusiness(msgInvalidCredentials, goerror.CodeUnauthorized)
	}

	if !user.EmailVerified() {
		slog.WarnContext(ctx, "user email is not verified", "user_id", user.ID)
		return nil, goerror.NewBusiness(msgEmailNotVerified, goerror.CodeForbidden)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate login otp", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	digest, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash login otp", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	expiresAt := s.clock.Now().Add(s.cfg.GetMinute("modules.identity.login_otp_ttl_minutes"))
	if err := s.repoDB.SetUserLoginOTP(ctx, user.ID, string(digest), expiresAt); err != nil {
		slog.ErrorContext(ctx, "failed to repo set user login otp", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishLoginOTP(ctx, LoginOTPEvent{
		UserID:    user.ID,
		Email:     user.Email,
		Code:      code,
		ExpiresAt: expiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish login otp", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RequestLoginOTPOutput{ExpiresAt: expiresAt}, nil
}
