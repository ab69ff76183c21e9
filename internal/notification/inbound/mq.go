package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
)

// RegisterMQConsumer starts the consumers listed in
// modules.notification.consumer_names. An empty list starts none.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")
	concurrency := cfg.GetInt("modules.notification.consumer_concurrency")

	var consumers = []struct {
		name    string // consumer group on every broker
		topic   string // destination where publisher sent message
		handler messaging.Handler
	}{
		{
			name:    event.LoginOTPConsumerNotification,
			topic:   event.LoginOTPDestination,
			handler: mqHandler.LoginOTPNotification,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithGroup(consumer.name),
				messaging.WithConcurrency(concurrency),
			)
		})
	}
}
