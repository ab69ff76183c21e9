package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/notification/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
)

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

// ensureCorrelationID keeps the publisher's ID when the driver restored one.
func (h *MQHandler) ensureCorrelationID(ctx context.Context) context.Context {
	if instrument.GetCorrelationID(ctx) != "" {
		return ctx
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// LoginOTPNotification mails a login code. Malformed payloads are acked and
// dropped; delivery failures are returned so the broker redelivers.
func (h *MQHandler) LoginOTPNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "LoginOTPNotification")
	defer span.End()

	var payload event.LoginOTPMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of login otp notification", "topic", msg.Topic(), "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: login otp notification", "user_id", payload.UserID)

	if err := h.uc.SendLoginOTPEmail(ctx, usecase.SendLoginOTPEmailInput{
		UserID:    payload.UserID,
		Email:     payload.Email,
		Code:      payload.Code,
		ExpiresAt: payload.ExpiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume login otp", "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}
