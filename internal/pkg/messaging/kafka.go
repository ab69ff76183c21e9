package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/atomic"
)

type KafkaConfig struct {
	Brokers []string
	Dialer  *kafka.Dialer
}

// Kafka keeps one writer per topic. Consuming requires WithGroup; offsets
// are committed on Ack, and Nack leaves the offset for redelivery after a
// rebalance or restart.
type Kafka struct {
	brokers []string
	dialer  *kafka.Dialer
	closed  atomic.Bool

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("messaging: kafka brokers are required")
	}

	return &Kafka{
		brokers: cfg.Brokers,
		dialer:  cfg.Dialer,
		writers: map[string]*kafka.Writer{},
	}, nil
}

func (k *Kafka) Close() error {
	if k.closed.Swap(true) {
		return nil
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	var err error
	for _, w := range k.writers {
		err = errors.Join(err, w.Close())
	}
	k.writers = nil
	return err
}

func (k *Kafka) writer(topic string) *kafka.Writer {
	k.mu.Lock()
	defer k.mu.Unlock()

	if w, ok := k.writers[topic]; ok {
		return w
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(k.brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	if k.dialer != nil {
		w.Transport = &kafka.Transport{TLS: k.dialer.TLS, SASL: k.dialer.SASLMechanism}
	}
	k.writers[topic] = w
	return w
}

func (k *Kafka) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if k.closed.Load() {
		return ErrClosed
	}
	if topic == "" {
		return ErrTopicRequired
	}

	km := kafka.Message{Key: msg.Key, Value: msg.Body, Time: time.Now()}
	for key, v := range outgoingHeaders(ctx, msg) {
		km.Headers = append(km.Headers, kafka.Header{Key: key, Value: []byte(v)})
	}

	if err := k.writer(topic).WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("messaging: kafka publish: %w", err)
	}
	return nil
}

func (k *Kafka) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if k.closed.Load() {
		return ErrClosed
	}
	if err := validateConsume(topic, handler); err != nil {
		return err
	}

	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrGroupRequired
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		GroupID:  co.group,
		Topic:    topic,
		MaxBytes: 10e6,
		Dialer:   k.dialer,
	})
	defer reader.Close()

	msgCh := make(chan kafka.Message)
	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for m := range msgCh {
				_ = dispatch(ctx, DriverKafka, &kafkaMessage{reader: reader, m: m}, handler, co)
			}
		})
	}

	var err error
	for {
		m, ferr := reader.FetchMessage(ctx)
		if ferr != nil {
			err = ferr
			break
		}
		msgCh <- m
	}
	close(msgCh)
	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("messaging: kafka consume: %w", err)
}

type kafkaMessage struct {
	reader *kafka.Reader
	m      kafka.Message
}

func (m *kafkaMessage) Topic() string { return m.m.Topic }
func (m *kafkaMessage) Body() []byte  { return m.m.Value }

func (m *kafkaMessage) Header(key string) string {
	for _, h := range m.m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (m *kafkaMessage) Ack(ctx context.Context) error {
	return m.reader.CommitMessages(ctx, m.m)
}

func (*kafkaMessage) Nack(context.Context) error { return nil }
