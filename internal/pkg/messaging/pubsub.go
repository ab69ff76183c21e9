package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub/v2"
	"go.uber.org/atomic"
	"google.golang.org/api/option"
)

type PubSubConfig struct {
	ProjectID     string
	ClientOptions []option.ClientOption
}

// PubSub publishes to topics and consumes from the subscription given by
// WithGroup. Message ordering is left disabled, so OutgoingMessage.Key is ignored.
type PubSub struct {
	client *pubsub.Client
	closed atomic.Bool

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("messaging: pubsub project id is required")
	}

	c, err := pubsub.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("messaging: pubsub client: %w", err)
	}

	return &PubSub{client: c, publishers: map[string]*pubsub.Publisher{}}, nil
}

func (p *PubSub) Close() error {
	if p.closed.Swap(true) {
		return nil
	}

	p.mu.Lock()
	for _, pub := range p.publishers {
		pub.Stop()
	}
	p.publishers = nil
	p.mu.Unlock()

	return p.client.Close()
}

func (p *PubSub) publisher(topic string) *pubsub.Publisher {
	p.mu.Lock()
	defer p.mu.Unlock()

	pub, ok := p.publishers[topic]
	if !ok {
		pub = p.client.Publisher(topic)
		p.publishers[topic] = pub
	}
	return pub
}

func (p *PubSub) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if topic == "" {
		return ErrTopicRequired
	}

	res := p.publisher(topic).Publish(ctx, &pubsub.Message{
		Data:       msg.Body,
		Attributes: outgoingHeaders(ctx, msg),
	})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("messaging: pubsub publish: %w", err)
	}
	return nil
}

func (p *PubSub) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if err := validateConsume(topic, handler); err != nil {
		return err
	}

	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrGroupRequired
	}

	sub := p.client.Subscriber(co.group)
	sub.ReceiveSettings.NumGoroutines = co.concurrency

	return sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		_ = dispatch(ctx, DriverGooglePubSub, pubsubMessage{topic: topic, m: m}, handler, co)
	})
}

type pubsubMessage struct {
	topic string
	m     *pubsub.Message
}

func (m pubsubMessage) Topic() string            { return m.topic }
func (m pubsubMessage) Body() []byte             { return m.m.Data }
func (m pubsubMessage) Header(key string) string { return m.m.Attributes[key] }

func (m pubsubMessage) Ack(context.Context) error {
	m.m.Ack()
	return nil
}

func (m pubsubMessage) Nack(context.Context) error {
	m.m.Nack()
	return nil
}
