package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"
)

type NATSConfig struct {
	URL     string
	Name    string
	Options []nats.Option
}

// NATS uses core NATS subjects. Delivery is at-most-once, so Ack and Nack
// are no-ops unless the message came from JetStream.
type NATS struct {
	conn   *nats.Conn
	closed atomic.Bool
}

func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, errors.New("messaging: nats url is required")
	}

	opts := cfg.Options
	if cfg.Name != "" {
		opts = append([]nats.Option{nats.Name(cfg.Name)}, opts...)
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

func (n *NATS) Close() error {
	if n.closed.Swap(true) {
		return nil
	}

	err := n.conn.Drain()
	n.conn.Close()
	return err
}

func (n *NATS) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if n.closed.Load() {
		return ErrClosed
	}
	if topic == "" {
		return ErrTopicRequired
	}

	nm := nats.NewMsg(topic)
	nm.Data = msg.Body
	for k, v := range outgoingHeaders(ctx, msg) {
		nm.Header.Set(k, v)
	}

	if err := n.conn.PublishMsg(nm); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("messaging: nats flush: %w", err)
	}
	return nil
}

func (n *NATS) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if n.closed.Load() {
		return ErrClosed
	}
	if err := validateConsume(topic, handler); err != nil {
		return err
	}

	co := newConsumeOptions(opts...)
	msgCh := make(chan *nats.Msg, co.concurrency)

	sub, err := n.conn.QueueSubscribe(topic, co.group, func(m *nats.Msg) {
		select {
		case msgCh <- m:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for m := range msgCh {
				_ = dispatch(ctx, DriverNATS, natsMessage{m}, handler, co)
			}
		})
	}

	<-ctx.Done()
	derr := sub.Drain()
	close(msgCh)
	wg.Wait()

	return errors.Join(ctx.Err(), derr)
}

type natsMessage struct{ m *nats.Msg }

func (m natsMessage) Topic() string            { return m.m.Subject }
func (m natsMessage) Body() []byte             { return m.m.Data }
func (m natsMessage) Header(key string) string { return m.m.Header.Get(key) }

func (m natsMessage) Ack(context.Context) error {
	return ignoreNoReply(m.m.Ack())
}

func (m natsMessage) Nack(context.Context) error {
	return ignoreNoReply(m.m.Nak())
}

func ignoreNoReply(err error) error {
	if errors.Is(err, nats.ErrMsgNoReply) || errors.Is(err, nats.ErrMsgNotBound) {
		return nil
	}
	return err
}
