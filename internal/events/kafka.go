package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter интерфейс kafka.Writer (для тестов)
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MetricsRecorder интерфейс для фиксации результата публикации
type MetricsRecorder interface {
	RecordEventPublished(eventType string, err error)
}

// KafkaPublisher публикует события в Kafka
// Ключ сообщения - ID инструктора, чтобы события одного расписания шли в одну партицию
type KafkaPublisher struct {
	writer  MessageWriter
	metrics MetricsRecorder
	timeout time.Duration
}

// NewKafkaWriter создает kafka.Writer для топика событий
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// NewKafkaPublisher создает публикатор
// metrics может быть nil
func NewKafkaPublisher(writer MessageWriter, metrics MetricsRecorder) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  writer,
		metrics: metrics,
		timeout: 5 * time.Second,
	}
}

// Handle сериализует событие в JSON и отправляет в Kafka
func (p *KafkaPublisher) Handle(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.InstructorID, 10)),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID.String())},
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	// Отправка не должна зависеть от отмены HTTP запроса
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(writeCtx, msg)
	if p.metrics != nil {
		p.metrics.RecordEventPublished(string(event.Type), err)
	}
	if err != nil {
		return fmt.Errorf("events: publish %s: %w", event.Type, err)
	}

	return nil
}

// Close закрывает writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
