package eventhandlers

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event types published to the events topic.
const (
	TaskStudentCreated = "task_student.created"
	TaskStudentUpdated = "task_student.updated"
	TaskStudentDeleted = "task_student.deleted"
	UserCreated        = "user.created"
)

type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// publishTimeout bounds one publish so a down broker cannot stall a request.
const publishTimeout = 2 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes domain events to kafka. A nil *Publisher, or one built
// without brokers, drops events, so callers never need to check.
type Publisher struct {
	writer  messageWriter
	timeout time.Duration
	log     zerolog.Logger
}

func NewPublisher(broker, topic string, log zerolog.Logger) *Publisher {
	if broker == "" {
		return &Publisher{log: log}
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(broker),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
			WriteTimeout:           publishTimeout,
		},
		timeout: publishTimeout,
		log:     log,
	}
}

// Publish sends the event and waits at most the publish timeout. Failures are
// logged and dropped.
func (p *Publisher) Publish(ctx context.Context, eventType string, key int, payload interface{}) {
	if p == nil || p.writer == nil {
		return
	}
	body, err := json.Marshal(Event{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		p.log.Error().Err(err).Str("type", eventType).Msg("encode event")
		return
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	msg := kafka.Message{Key: []byte(strconv.Itoa(key)), Value: body}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error().Err(err).Str("type", eventType).Msg("publish event")
	}
}

func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
