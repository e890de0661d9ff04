package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
	block  chan struct{}
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *recordingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestNewEnvelope(t *testing.T) {
	now := time.Date(2025, 5, 14, 15, 4, 5, 0, time.FixedZone("EST", -5*3600))

	env, err := NewEnvelope(EventLabelPurchased, "tcg-labeler", "batch-1", LabelPurchasedPayload{
		BatchID:      "batch-1",
		OrderNumber:  "1001",
		TrackingCode: "9400",
	}, now)
	require.NoError(t, err)

	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, EventLabelPurchased, env.EventType)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, time.UTC, env.OccurredAt.Location())
	assert.Equal(t, "batch-1", env.CorrelationID)

	payload, err := UnwrapPayload[LabelPurchasedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "1001", payload.OrderNumber)
	assert.Equal(t, "9400", payload.TrackingCode)
}

func TestKafkaPublisher_FlushesOnClose(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaPublisher(w, 8, zerolog.Nop())
	p.Start()

	for _, id := range []string{"b1", "b2", "b3"} {
		env, err := NewEnvelope(EventBatchCompleted, "tcg-labeler", id, BatchCompletedPayload{BatchID: id}, time.Now())
		require.NoError(t, err)
		require.NoError(t, p.Publish(context.Background(), env))
	}

	require.NoError(t, p.Close())

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Len(t, w.msgs, 3)
	assert.Equal(t, "b1", string(w.msgs[0].Key))
	assert.Equal(t, "x-event-type", w.msgs[0].Headers[0].Key)
	assert.Equal(t, EventBatchCompleted, string(w.msgs[0].Headers[0].Value))
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteErrorIsLoggedNotFatal(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := newKafkaPublisher(w, 2, zerolog.Nop())
	p.Start()

	env, err := NewEnvelope(EventBatchCompleted, "tcg-labeler", "b1", BatchCompletedPayload{}, time.Now())
	require.NoError(t, err)
	assert.NoError(t, p.Publish(context.Background(), env))
	assert.NoError(t, p.Close())
}

func TestKafkaPublisher_BufferFull(t *testing.T) {
	w := &recordingWriter{block: make(chan struct{})}
	p := newKafkaPublisher(w, 1, zerolog.Nop())
	p.Start()

	env, err := NewEnvelope(EventBatchCompleted, "tcg-labeler", "b1", BatchCompletedPayload{}, time.Now())
	require.NoError(t, err)

	// The first message is taken by the writer loop, which then blocks.
	// Keep publishing until the one-slot inbox reports it is full.
	var full error
	for i := 0; i < 10 && full == nil; i++ {
		if err := p.Publish(context.Background(), env); err != nil {
			full = err
		}
	}
	assert.ErrorIs(t, full, ErrBufferFull)

	close(w.block)
	require.NoError(t, p.Close())
}

func TestKafkaPublisher_PublishAfterClose(t *testing.T) {
	p := newKafkaPublisher(&recordingWriter{}, 1, zerolog.Nop())
	p.Start()
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	err := p.Publish(context.Background(), Envelope{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestKafkaPublisher_CloseWithoutStart(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaPublisher(w, 2, zerolog.Nop())
	require.NoError(t, p.Publish(context.Background(), Envelope{CorrelationID: "b1"}))

	closed := make(chan error, 1)
	go func() { closed <- p.Close() }()

	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked without a running writer loop")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.True(t, w.closed)
	assert.Empty(t, w.msgs)

	// Start after Close must not launch a loop over the closed inbox.
	p.Start()
	assert.ErrorIs(t, p.Publish(context.Background(), Envelope{}), ErrClosed)
}

func TestKafkaPublisher_StartTwice(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaPublisher(w, 2, zerolog.Nop())
	p.Start()
	p.Start()

	require.NoError(t, p.Publish(context.Background(), Envelope{CorrelationID: "b1"}))
	require.NoError(t, p.Close())

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Len(t, w.msgs, 1)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Envelope{}))
	assert.NoError(t, p.Close())
}
