package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher writes loan events to a Kafka topic, keyed by loan id so the events
// of one loan stay ordered within a partition.
type KafkaPublisher struct {
	mu        sync.Mutex
	brokers   []string
	topic     string
	writers   map[string]messageWriter
	newWriter func(topic string) messageWriter
	logger    *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		brokers: brokers,
		topic:   topic,
		writers: make(map[string]messageWriter),
		logger:  logger,
	}
	p.newWriter = p.kafkaWriter
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...LoanEvent) error {
	messages := make([]kafkago.Message, 0, len(events))
	for _, evt := range events {
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", evt.Type, err)
		}

		p.logger.DebugContext(ctx, "publishing loan event",
			"event_type", evt.Type,
			"loan_id", evt.LoanID,
			"topic", p.topic,
			"payload_size", len(payload),
		)

		messages = append(messages, kafkago.Message{
			Key:   []byte(evt.LoanID),
			Value: payload,
			Headers: []kafkago.Header{
				{Key: "event_type", Value: []byte(evt.Type)},
				{Key: "event_id", Value: []byte(evt.ID.String())},
			},
		})
	}

	if len(messages) == 0 {
		return nil
	}

	if err := p.writer(p.topic).WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("failed to publish events to topic %s: %w", p.topic, err)
	}
	return nil
}

// Close closes all writers.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing writer for topic %s: %w", topic, err)
		}
	}
	p.writers = make(map[string]messageWriter)
	return firstErr
}

func (p *KafkaPublisher) writer(topic string) messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := p.newWriter(topic)
	p.writers[topic] = w
	return w
}

func (p *KafkaPublisher) kafkaWriter(topic string) messageWriter {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(p.brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafkago.RequireAll,
	}
}

// LogPublisher only logs events. It is used when no brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, events ...LoanEvent) error {
	for _, evt := range events {
		p.logger.InfoContext(ctx, "loan event", "event_type", evt.Type, "loan_id", evt.LoanID, "event_id", evt.ID)
	}
	return nil
}

func (p *LogPublisher) Close() error { return nil }
