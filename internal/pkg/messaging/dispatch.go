package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/stacktrace"
)

// dispatch runs handler for one delivery, recovering panics, restoring the
// publisher's correlation ID and settling the message unless manualAck is set.
func dispatch(ctx context.Context, driver string, msg Message, handler Handler, opts consumeOptions) error {
	if cid := msg.Header(instrument.CorrelationHeader); cid != "" {
		ctx = instrument.SetCorrelationID(ctx, cid)
	}

	err := callHandler(ctx, driver, msg, handler)
	if err != nil {
		slog.WarnContext(ctx, "message handler failed", "driver", driver, "topic", msg.Topic(), "error", err)
	}
	if opts.manualAck {
		return nil
	}

	if err != nil {
		return msg.Nack(ctx)
	}
	return msg.Ack(ctx)
}

func callHandler(ctx context.Context, driver string, msg Message, handler Handler) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}

		stack := debug.Stack()
		if frames := stacktrace.InternalPaths(stack); len(frames) > 0 {
			slog.ErrorContext(ctx, "panic in message handler", "driver", driver, "panic", rvr, "stack", frames)
		} else {
			slog.ErrorContext(ctx, "panic in message handler", "driver", driver, "panic", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
	}()

	return handler(ctx, msg)
}

// outgoingHeaders copies msg headers and stamps the correlation ID from ctx.
func outgoingHeaders(ctx context.Context, msg OutgoingMessage) map[string]string {
	h := make(map[string]string, len(msg.Headers)+1)
	for k, v := range msg.Headers {
		if k != "" {
			h[k] = v
		}
	}
	if _, ok := h[instrument.CorrelationHeader]; !ok {
		if cid := instrument.GetCorrelationID(ctx); cid != "" {
			h[instrument.CorrelationHeader] = cid
		}
	}
	return h
}

func validateConsume(topic string, handler Handler) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	return nil
}
