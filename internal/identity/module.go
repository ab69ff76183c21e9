package identity

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/internal/identity/inbound"
	"github.com/shandysiswandi/otpgate/internal/identity/outbound/db"
	"github.com/shandysiswandi/otpgate/internal/identity/outbound/mq"
	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/lock"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Locker     lock.Locker                `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Opaque     uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Password   hash.Hash                  `validate:"required"`
	OTP        otp.Generator              `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoMessaging: repoMsg,
		Locker:        dep.Locker,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Password:      dep.Password,
		HMAC:          dep.HMAC,
		OTP:           dep.OTP,
		UID:           dep.UID,
		Opaque:        dep.Opaque,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
