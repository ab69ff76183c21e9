package usecase

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/shandysiswandi/otpgate/internal/notification/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type repoTemplate interface {
	LoginOTP(ctx context.Context) (*entity.Template, error)
}

type Usecase struct {
	cfg          config.Config
	clock        clock.Clocker
	validator    validator.Validator
	repoMail     repoMail
	repoTemplate repoTemplate
	ins          instrument.Instrumentation
}

type Dependency struct {
	Config       config.Config
	Clock        clock.Clocker
	Validator    validator.Validator
	RepoMail     repoMail
	RepoTemplate repoTemplate
	Instrument   instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		cfg:          dep.Config,
		clock:        dep.Clock,
		validator:    dep.Validator,
		repoMail:     dep.RepoMail,
		repoTemplate: dep.RepoTemplate,
		ins:          dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) appName() string {
	if name := s.cfg.GetString("app.name"); name != "" {
		return name
	}
	return "otpgate"
}

func renderHTML(name, tpl string, data any) (string, error) {
	t, err := htmltemplate.New(name).Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func renderText(name, tpl string, data any) (string, error) {
	if tpl == "" {
		return "", nil
	}

	t, err := texttemplate.New(name).Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// minutesLeft rounds up so a code with 4m01s left reads "5 minute(s)".
func minutesLeft(now, expiresAt time.Time) int {
	left := expiresAt.Sub(now)
	m := int((left + time.Minute - 1) / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}
