package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

// PublishLoginOTP keys the message by user so codes for one account stay in
// order on partitioned brokers.
func (m *Messaging) PublishLoginOTP(ctx context.Context, msg usecase.LoginOTPEvent) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishLoginOTP")
	defer span.End()

	body, err := json.Marshal(event.LoginOTPMessage{
		UserID:    msg.UserID,
		Email:     msg.Email,
		Code:      msg.Code,
		ExpiresAt: msg.ExpiresAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Publish(ctx, event.LoginOTPDestination, messaging.OutgoingMessage{
		Body: body,
		Key:  []byte(strconv.FormatInt(msg.UserID, 10)),
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
