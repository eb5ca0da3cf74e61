package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kovalabs/productsearch/internal/logger"
)

// Publisher publishes envelopes to a topic. Satisfied by Producer and by
// NopPublisher when eventing is disabled.
type Publisher interface {
	Publish(ctx context.Context, topic string, env *Envelope) error
}

// ProducerConfig holds Kafka producer configuration.
type ProducerConfig struct {
	Brokers      []string
	Source       string
	BatchSize    int
	BatchTimeout time.Duration
}

// DefaultProducerConfig returns sensible defaults for the Kafka producer.
func DefaultProducerConfig(brokers []string, source string) ProducerConfig {
	return ProducerConfig{
		Brokers:      brokers,
		Source:       source,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// Producer publishes product lifecycle events to Kafka.
type Producer struct {
	writer  *kafka.Writer
	brokers []string
	source  string
	logger  *slog.Logger
}

// NewProducer creates a Kafka producer for product events.
func NewProducer(cfg ProducerConfig, log *slog.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireAll,
	}

	return &Producer{
		writer:  w,
		brokers: cfg.Brokers,
		source:  cfg.Source,
		logger:  log,
	}
}

// Source returns the producer's event source name.
func (p *Producer) Source() string {
	return p.source
}

// Publish sends an envelope to the given topic, keyed by aggregate ID so
// events for the same product stay ordered within a partition.
func (p *Producer) Publish(ctx context.Context, topic string, env *Envelope) error {
	if env.CorrelationID == "" {
		env.CorrelationID = logger.CorrelationIDFromContext(ctx)
	}

	data, err := env.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(env.AggregateID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
			{Key: "source", Value: []byte(env.Source)},
		},
	}

	if env.CorrelationID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{
			Key: "correlation_id", Value: []byte(env.CorrelationID),
		})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.String("event_type", env.EventType),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("publish event to %s: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "event published",
		slog.String("topic", topic),
		slog.String("event_type", env.EventType),
		slog.String("aggregate_id", env.AggregateID),
	)
	return nil
}

// Ping checks broker connectivity by dialing each broker until one answers.
func (p *Producer) Ping(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("kafka: no brokers configured")
	}

	var lastErr error
	for _, addr := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		_, err = conn.Brokers()
		_ = conn.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("kafka ping: all brokers unreachable: %w", lastErr)
}

// Close flushes pending messages and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// NopPublisher discards all events. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, *Envelope) error { return nil }
