package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-LessonService/internal/domain"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type fakeMetrics struct {
	published map[string]int
	failed    map[string]int
}

func (m *fakeMetrics) RecordEventPublished(eventType string, err error) {
	if err != nil {
		m.failed[eventType]++
		return
	}
	m.published[eventType]++
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{published: map[string]int{}, failed: map[string]int{}}
}

func TestKafkaPublisher_Handle(t *testing.T) {
	writer := &fakeWriter{}
	metrics := newFakeMetrics()
	publisher := NewKafkaPublisher(writer, metrics)

	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	booking := &domain.Booking{
		ID:           42,
		InstructorID: 7,
		MemberID:     11,
		Status:       domain.StatusConfirmed,
	}
	event := BookingStatusChanged(booking, domain.StatusPending, 7, at)

	require.NoError(t, publisher.Handle(context.Background(), event))
	require.Len(t, writer.msgs, 1)

	msg := writer.msgs[0]
	assert.Equal(t, "7", string(msg.Key))
	assert.Equal(t, []kafka.Header{
		{Key: "event_id", Value: []byte(event.ID.String())},
		{Key: "event_type", Value: []byte("booking.status_changed")},
	}, msg.Headers)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, int64(42), decoded.BookingID)
	assert.Equal(t, "confirmed", decoded.Status)
	assert.Equal(t, "pending", decoded.PreviousStatus)
	assert.True(t, at.Equal(decoded.OccurredAt))

	assert.Equal(t, 1, metrics.published["booking.status_changed"])

	require.NoError(t, publisher.Close())
	assert.True(t, writer.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("leader not available")}
	metrics := newFakeMetrics()
	publisher := NewKafkaPublisher(writer, metrics)

	err := publisher.Handle(context.Background(), AvailabilityChanged(7, time.Now()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
	assert.Equal(t, 1, metrics.failed["availability.changed"])
}

func TestKafkaPublisher_NilMetrics(t *testing.T) {
	publisher := NewKafkaPublisher(&fakeWriter{}, nil)
	assert.NoError(t, publisher.Handle(context.Background(), AvailabilityChanged(7, time.Now())))
}
