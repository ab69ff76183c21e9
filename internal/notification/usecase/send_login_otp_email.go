package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpgate/internal/notification/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
)

type SendLoginOTPEmailInput struct {
	UserID    int64     `validate:"required,gt=0"`
	Email     string    `validate:"required,email"`
	Code      string    `validate:"required,otp"`
	ExpiresAt time.Time `validate:"required"`
}

// SendLoginOTPEmail mails a login code. Codes that expired before they could
// be delivered are dropped. Transient mail failures are retried with
// exponential backoff; the final error is returned so the message is
// redelivered.
func (s *Usecase) SendLoginOTPEmail(ctx context.Context, in SendLoginOTPEmailInput) error {
	ctx, span := s.startSpan(ctx, "SendLoginOTPEmail")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "validation failed, login otp email dropped", "user_id", in.UserID, "error", err)
		return nil
	}

	now := s.clock.Now()
	if now.After(in.ExpiresAt) {
		slog.WarnContext(ctx, "login otp expired before delivery", "user_id", in.UserID, "expires_at", in.ExpiresAt)
		return nil
	}

	tpl, err := s.repoTemplate.LoginOTP(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get login otp template", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	data := entity.LoginOTPData{
		Email:     in.Email,
		Code:      in.Code,
		ExpiresAt: in.ExpiresAt,
		ExpiresIn: minutesLeft(now, in.ExpiresAt),
		AppName:   s.appName(),
		Year:      now.Format("2006"),
	}

	subject, err := renderText("subject", tpl.Subject, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render login otp subject", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	html, err := renderHTML("html", tpl.HTMLBody, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render login otp html body", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	text, err := renderText("text", tpl.TextBody, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render login otp text body", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	msg := mail.Message{
		To:       []string{in.Email},
		Subject:  subject,
		HTMLBody: html,
		TextBody: text,
	}

	attempts := 0
	err = retry.Do(ctx, s.mailBackoff(), func(ctx context.Context) error {
		attempts++
		if err := s.repoMail.Send(ctx, msg); err != nil {
			slog.WarnContext(ctx, "failed to send login otp email", "user_id", in.UserID, "attempt", attempts, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "giving up sending login otp email", "user_id", in.UserID, "attempts", attempts, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "login otp email sent", "user_id", in.UserID, "attempts", attempts)

	return nil
}

func (s *Usecase) mailBackoff() retry.Backoff {
	base := s.cfg.GetSecond("modules.notification.mail_retry_base_seconds")
	if base <= 0 {
		base = time.Second
	}

	maxRetries := s.cfg.GetInt("modules.notification.mail_max_retries")
	if maxRetries < 0 {
		maxRetries = 0
	}

	b := retry.NewExponential(base)
	b = retry.WithCappedDuration(10*base, b)
	return retry.WithMaxRetries(uint64(maxRetries), b)
}
