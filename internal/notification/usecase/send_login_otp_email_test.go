package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/notification/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMail struct {
	sent  []mail.Message
	fails int
	calls int
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.calls++
	if f.calls <= f.fails {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeTemplate struct {
	tpl *entity.Template
	err error
}

func (f fakeTemplate) LoginOTP(context.Context) (*entity.Template, error) {
	return f.tpl, f.err
}

var now = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

func newUsecase(t *testing.T, m *fakeMail, tpl fakeTemplate, maxRetries int) *Usecase {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", fmt.Appendf(nil, `
app:
  name: "Acme <Co> & Sons"
modules:
  notification:
    mail_retry_base_seconds: 1
    mail_max_retries: %d
`, maxRetries))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	return NewNotification(Dependency{
		Config:       cfg,
		Clock:        clock.NewManual(now),
		Validator:    v,
		RepoMail:     m,
		RepoTemplate: tpl,
		Instrument:   instrument.NewNoop(),
	})
}

func defaultTemplate() fakeTemplate {
	return fakeTemplate{tpl: &entity.Template{
		Subject:  "Your OTP Code",
		HTMLBody: "<p>{{.Code}} for {{.Email}} ({{.ExpiresIn}}m) {{.AppName}}</p>",
		TextBody: "code {{.Code}}",
	}}
}

func validInput() SendLoginOTPEmailInput {
	return SendLoginOTPEmailInput{
		UserID:    1,
		Email:     "a@x.com",
		Code:      "123456",
		ExpiresAt: now.Add(4*time.Minute + time.Second),
	}
}

func TestSendLoginOTPEmail(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		m := &fakeMail{}
		uc := newUsecase(t, m, defaultTemplate(), 0)

		err := uc.SendLoginOTPEmail(context.Background(), validInput())

		require.NoError(t, err)
		require.Len(t, m.sent, 1)
		assert.Equal(t, mail.Message{
			To:       []string{"a@x.com"},
			Subject:  "Your OTP Code",
			HTMLBody: "<p>123456 for a@x.com (5m) Acme &lt;Co&gt; &amp; Sons</p>",
			TextBody: "code 123456",
		}, m.sent[0])
	})

	t.Run("HTMLIsEscaped", func(t *testing.T) {
		m := &fakeMail{}
		uc := newUsecase(t, m, fakeTemplate{tpl: &entity.Template{
			Subject:  "{{.AppName}}",
			HTMLBody: "{{.AppName}}",
			TextBody: "{{.AppName}}",
		}}, 0)

		require.NoError(t, uc.SendLoginOTPEmail(context.Background(), validInput()))

		require.Len(t, m.sent, 1)
		assert.Equal(t, "Acme &lt;Co&gt; &amp; Sons", m.sent[0].HTMLBody)
		assert.Equal(t, "Acme <Co> & Sons", m.sent[0].Subject)
		assert.Equal(t, "Acme <Co> & Sons", m.sent[0].TextBody)
	})

	t.Run("ExpiredCodeIsDropped", func(t *testing.T) {
		m := &fakeMail{}
		uc := newUsecase(t, m, defaultTemplate(), 0)
		in := validInput()
		in.ExpiresAt = now.Add(-time.Second)

		err := uc.SendLoginOTPEmail(context.Background(), in)

		require.NoError(t, err)
		assert.Zero(t, m.calls)
	})

	t.Run("InvalidPayloadIsDropped", func(t *testing.T) {
		m := &fakeMail{}
		uc := newUsecase(t, m, defaultTemplate(), 0)
		in := validInput()
		in.Code = "12"

		err := uc.SendLoginOTPEmail(context.Background(), in)

		require.NoError(t, err)
		assert.Zero(t, m.calls)
	})

	t.Run("RetriesTransientFailure", func(t *testing.T) {
		m := &fakeMail{fails: 1}
		uc := newUsecase(t, m, defaultTemplate(), 1)

		err := uc.SendLoginOTPEmail(context.Background(), validInput())

		require.NoError(t, err)
		assert.Equal(t, 2, m.calls)
		assert.Len(t, m.sent, 1)
	})

	t.Run("GivesUp", func(t *testing.T) {
		m := &fakeMail{fails: 10}
		uc := newUsecase(t, m, defaultTemplate(), 0)

		err := uc.SendLoginOTPEmail(context.Background(), validInput())

		ge, ok := goerror.As(err)
		require.True(t, ok)
		assert.Equal(t, goerror.TypeServer, ge.Type())
		assert.Equal(t, 1, m.calls)
	})

	t.Run("BrokenTemplate", func(t *testing.T) {
		m := &fakeMail{}
		uc := newUsecase(t, m, fakeTemplate{tpl: &entity.Template{Subject: "s", HTMLBody: "{{.Code"}}, 0)

		err := uc.SendLoginOTPEmail(context.Background(), validInput())

		require.Error(t, err)
		assert.Zero(t, m.calls)
	})
}

func TestMinutesLeft(t *testing.T) {
	assert.Equal(t, 5, minutesLeft(now, now.Add(5*time.Minute)))
	assert.Equal(t, 5, minutesLeft(now, now.Add(4*time.Minute+time.Second)))
	assert.Equal(t, 1, minutesLeft(now, now.Add(time.Second)))
	assert.Equal(t, 1, minutesLeft(now, now))
}
