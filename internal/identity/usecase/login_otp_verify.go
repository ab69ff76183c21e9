package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type VerifyLoginOTPInput struct {
	Email  string `validate:"required,email"`
	Code   string `validate:"required,otp"`
	Client ClientMeta
}

// VerifyLoginOTP consumes the pending login code and opens a session. A code
// is accepted up to and including its expiry instant and only once; a failed
// attempt leaves the pending code untouched.
func (s *Usecase) VerifyLoginOTP(ctx context.Context, in VerifyLoginOTPInput) (*SessionOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyLoginOTP")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	var out *SessionOutput
	err := s.withEmailLock(ctx, in.Email, func(ctx context.Context) error {
		var err error
		out, err = s.verifyLoginOTP(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Usecase) verifyLoginOTP(ctx context.Context, in VerifyLoginOTPInput) (*SessionOutput, error) {
	user, err := s.repoDB.GetUserLoginInfo(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "email", in.Email)
		return nil, goerror.NewBusiness(msgUserNotFound, goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user login info", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	invalid := goerror.NewBusiness(msgInvalidOrExpiredOTP, goerror.CodeUnauthorized)

	if !user.HasPendingOTP() {
		slog.WarnContext(ctx, "no pending login otp", "user_id", user.ID)
		return nil, invalid
	}

	now := s.clock.Now()
	if now.After(*user.OTPExpiresAt) {
		slog.WarnContext(ctx, "login otp is expired", "user_id", user.ID)
		return nil, invalid
	}

	if !s.hmac.Verify(user.OTPCode, in.Code) {
		slog.WarnContext(ctx, "login otp not match", "user_id", user.ID)
		return nil, invalid
	}

	consumed, err := s.repoDB.ConsumeUserLoginOTP(ctx, user.ID, user.OTPCode, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume user login otp", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !consumed {
		slog.WarnContext(ctx, "login otp was consumed or replaced concurrently", "user_id", user.ID)
		return nil, invalid
	}

	return s.issueSession(ctx, user.ID, user.Email, in.Client.toMap())
}
