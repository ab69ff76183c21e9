package notification

import (
	"context"
	"io"

	"github.com/shandysiswandi/otpgate/internal/notification/inbound"
	"github.com/shandysiswandi/otpgate/internal/notification/outbound/email"
	"github.com/shandysiswandi/otpgate/internal/notification/outbound/template"
	"github.com/shandysiswandi/otpgate/internal/notification/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/storage"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	// Storage is optional; without it only built-in templates are used.
	Storage storage.Storage
}

// New wires the module and starts its consumers. The returned closer releases
// the template cache.
func New(dep Dependency) (io.Closer, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	repoMail := email.New(dep.Mail, dep.Instrument)
	repoTemplate := template.New(dep.Storage, dep.Config, dep.Instrument)

	uc := usecase.NewNotification(usecase.Dependency{
		Config:       dep.Config,
		Clock:        dep.Clock,
		Validator:    dep.Validator,
		RepoMail:     repoMail,
		RepoTemplate: repoTemplate,
		Instrument:   dep.Instrument,
	})

	inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)

	return repoTemplate, nil
}
