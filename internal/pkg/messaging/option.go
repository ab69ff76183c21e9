package messaging

type consumeOptions struct {
	concurrency int
	group       string
	manualAck   bool
}

// ConsumeOption configures Consume.
type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	if co.concurrency <= 0 {
		co.concurrency = 1
	}
	return co
}

// WithConcurrency sets how many handlers run in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithGroup names the load-balanced consumer group. It maps to a Kafka
// group ID, an NSQ channel, a NATS queue group and a Pub/Sub subscription.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}

// WithManualAck leaves Ack and Nack to the handler.
func WithManualAck() ConsumeOption {
	return func(o *consumeOptions) { o.manualAck = true }
}
