package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	DriverNATS         = "nats"
	DriverKafka        = "kafka"
	DriverNSQ          = "nsq"
	DriverGooglePubSub = "google-pubsub"
)

var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions holds the config of every driver; only the selected one is read.
type FactoryOptions struct {
	NATS   NATSConfig
	Kafka  KafkaConfig
	NSQ    NSQConfig
	PubSub PubSubConfig
}

func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Messaging, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverNATS:
		return NewNATS(opts.NATS)
	case DriverKafka:
		return NewKafka(opts.Kafka)
	case DriverNSQ:
		return NewNSQ(opts.NSQ)
	case DriverGooglePubSub:
		return NewPubSub(ctx, opts.PubSub)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
