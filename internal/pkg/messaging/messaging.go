// Package messaging is a small broker-agnostic publish/consume layer with
// drivers for NATS, Kafka, NSQ and Google Pub/Sub.
package messaging

import (
	"context"
	"errors"
	"io"
)

var (
	ErrClosed          = errors.New("messaging: client closed")
	ErrTopicRequired   = errors.New("messaging: topic is required")
	ErrHandlerRequired = errors.New("messaging: handler is required")
	ErrGroupRequired   = errors.New("messaging: consumer group is required")
)

// Messaging publishes and consumes messages on one broker.
type Messaging interface {
	io.Closer

	Publish(ctx context.Context, topic string, msg OutgoingMessage) error

	// Consume blocks until ctx is done or the subscription fails.
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes one delivery. With auto-ack enabled a nil return acks
// the message and an error nacks it.
type Handler func(ctx context.Context, msg Message) error

type OutgoingMessage struct {
	Body []byte
	// Key is the Kafka partition key.
	Key     []byte
	Headers map[string]string
}

// Message is a received delivery.
type Message interface {
	Topic() string
	Body() []byte
	Header(key string) string
	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}
