package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessage struct {
	headers     map[string]string
	acks, nacks int
}

func (*fakeMessage) Topic() string              { return "t" }
func (*fakeMessage) Body() []byte               { return []byte("{}") }
func (m *fakeMessage) Header(key string) string { return m.headers[key] }

func (m *fakeMessage) Ack(context.Context) error {
	m.acks++
	return nil
}

func (m *fakeMessage) Nack(context.Context) error {
	m.nacks++
	return nil
}

func TestDispatch_AckOnSuccess(t *testing.T) {
	msg := &fakeMessage{headers: map[string]string{instrument.CorrelationHeader: "cid-9"}}

	var seen string
	err := dispatch(context.Background(), "test", msg, func(ctx context.Context, _ Message) error {
		seen = instrument.GetCorrelationID(ctx)
		return nil
	}, newConsumeOptions())

	require.NoError(t, err)
	assert.Equal(t, "cid-9", seen)
	assert.Equal(t, 1, msg.acks)
	assert.Equal(t, 0, msg.nacks)
}

func TestDispatch_NackOnErrorAndPanic(t *testing.T) {
	handlers := map[string]Handler{
		"error": func(context.Context, Message) error { return errors.New("boom") },
		"panic": func(context.Context, Message) error { panic("boom") },
	}

	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			msg := &fakeMessage{}

			require.NoError(t, dispatch(context.Background(), "test", msg, h, newConsumeOptions()))
			assert.Equal(t, 0, msg.acks)
			assert.Equal(t, 1, msg.nacks)
		})
	}
}

func TestDispatch_ManualAck(t *testing.T) {
	msg := &fakeMessage{}

	err := dispatch(context.Background(), "test", msg, func(context.Context, Message) error {
		return errors.New("boom")
	}, newConsumeOptions(WithManualAck()))

	require.NoError(t, err)
	assert.Zero(t, msg.acks+msg.nacks)
}

func TestOutgoingHeaders(t *testing.T) {
	ctx := instrument.SetCorrelationID(context.Background(), "from-ctx")

	h := outgoingHeaders(ctx, OutgoingMessage{Headers: map[string]string{"a": "1", "": "dropped"}})
	assert.Equal(t, map[string]string{"a": "1", instrument.CorrelationHeader: "from-ctx"}, h)

	h = outgoingHeaders(ctx, OutgoingMessage{Headers: map[string]string{instrument.CorrelationHeader: "explicit"}})
	assert.Equal(t, "explicit", h[instrument.CorrelationHeader])
}

func TestNewConsumeOptions(t *testing.T) {
	co := newConsumeOptions(WithConcurrency(0), WithGroup("notification"), nil)

	assert.Equal(t, 1, co.concurrency)
	assert.Equal(t, "notification", co.group)
	assert.False(t, co.manualAck)
}

func TestNewFromDriver(t *testing.T) {
	_, err := NewFromDriver(context.Background(), "rabbit", FactoryOptions{})
	require.ErrorIs(t, err, ErrUnknownDriver)

	_, err = NewFromDriver(context.Background(), DriverKafka, FactoryOptions{})
	require.Error(t, err)
}
