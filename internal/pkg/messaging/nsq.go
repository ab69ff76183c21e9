package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	nsq "github.com/nsqio/go-nsq"
	"go.uber.org/atomic"
)

type NSQConfig struct {
	// ProducerAddr is the nsqd TCP address used for publishing.
	ProducerAddr string
	// LookupdAddrs is preferred for consumers; NSQDAddrs is the fallback.
	LookupdAddrs []string
	NSQDAddrs    []string
}

// NSQ has no message headers, so Header always returns "" and publisher
// headers are dropped.
type NSQ struct {
	cfg      NSQConfig
	producer *nsq.Producer
	closed   atomic.Bool

	mu        sync.Mutex
	consumers []*nsq.Consumer
}

func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.ProducerAddr == "" {
		return nil, errors.New("messaging: nsq producer address is required")
	}

	p, err := nsq.NewProducer(cfg.ProducerAddr, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq producer: %w", err)
	}
	p.SetLoggerLevel(nsq.LogLevelError)

	return &NSQ{cfg: cfg, producer: p}, nil
}

func (n *NSQ) Close() error {
	if n.closed.Swap(true) {
		return nil
	}

	n.mu.Lock()
	consumers := n.consumers
	n.consumers = nil
	n.mu.Unlock()

	for _, c := range consumers {
		c.Stop()
		<-c.StopChan
	}
	n.producer.Stop()
	return nil
}

func (n *NSQ) Publish(_ context.Context, topic string, msg OutgoingMessage) error {
	if n.closed.Load() {
		return ErrClosed
	}
	if topic == "" {
		return ErrTopicRequired
	}

	if err := n.producer.Publish(topic, msg.Body); err != nil {
		return fmt.Errorf("messaging: nsq publish: %w", err)
	}
	return nil
}

func (n *NSQ) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if n.closed.Load() {
		return ErrClosed
	}
	if err := validateConsume(topic, handler); err != nil {
		return err
	}

	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrGroupRequired
	}

	ncfg := nsq.NewConfig()
	ncfg.MaxInFlight = max(ncfg.MaxInFlight, co.concurrency)

	consumer, err := nsq.NewConsumer(topic, co.group, ncfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)
	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		m.DisableAutoResponse()
		return dispatch(ctx, DriverNSQ, nsqMessage{topic: topic, m: m}, handler, co)
	}), co.concurrency)

	n.mu.Lock()
	n.consumers = append(n.consumers, consumer)
	n.mu.Unlock()

	if len(n.cfg.LookupdAddrs) > 0 {
		err = consumer.ConnectToNSQLookupds(n.cfg.LookupdAddrs)
	} else {
		err = consumer.ConnectToNSQDs(n.cfg.NSQDAddrs)
	}
	if err != nil {
		consumer.Stop()
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	select {
	case <-ctx.Done():
		consumer.Stop()
		<-consumer.StopChan
		return ctx.Err()
	case <-consumer.StopChan:
		return nil
	}
}

type nsqMessage struct {
	topic string
	m     *nsq.Message
}

func (m nsqMessage) Topic() string      { return m.topic }
func (m nsqMessage) Body() []byte       { return m.m.Body }
func (nsqMessage) Header(string) string { return "" }

func (m nsqMessage) Ack(context.Context) error {
	m.m.Finish()
	return nil
}

func (m nsqMessage) Nack(context.Context) error {
	m.m.Requeue(-1)
	return nil
}
