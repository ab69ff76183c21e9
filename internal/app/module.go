package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpgate/internal/identity"
	"github.com/shandysiswandi/otpgate/internal/notification"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.identity.enabled") {
		if err := identity.New(identity.Dependency{
			DBConn:     a.dbConn,
			Locker:     a.locker,
			Router:     a.router,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			Opaque:     a.opaque,
			HMAC:       a.hmac,
			Password:   a.password,
			OTP:        a.otp,
			Clock:      a.clock,
			Validator:  a.validator,
			JWT:        a.jwt,
		}); err != nil {
			slog.Error("failed to init module identity", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		closer, err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Mail:       a.mail,
			Storage:    a.storage,
		})
		if err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
		a.template = closer
	}
}
