package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/notification/usecase"
)

type uc interface {
	SendLoginOTPEmail(ctx context.Context, in usecase.SendLoginOTPEmailInput) error
}
