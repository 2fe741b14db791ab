// Package kafka publishes agent lifecycle events to Kafka
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Producer handles Kafka event emission
type Producer struct {
	writer  *kafka.Writer
	logger  ectologger.Logger
	topic   string
	brokers []string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compressionFor(cfg.Compression),
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer:  writer,
		logger:  logger,
		topic:   cfg.Topic,
		brokers: cfg.Brokers,
	}
}

// EnsureTopic connects to the cluster controller and creates the topic when it
// is missing. It doubles as the startup connectivity check.
func (p *Producer) EnsureTopic(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to kafka: %w", err)
	}
	defer func() { _ = conn.Close() }()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to get kafka controller: %w", err)
	}

	controllerConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("failed to connect to kafka controller: %w", err)
	}
	defer func() { _ = controllerConn.Close() }()

	// an existing topic is reported as an error and ignored
	if err := controllerConn.CreateTopics(kafka.TopicConfig{Topic: p.topic, NumPartitions: 1, ReplicationFactor: 1}); err != nil {
		p.logger.WithContext(ctx).WithError(err).Debugf("Topic %s not created", p.topic)
	}
	return nil
}

func compressionFor(name string) kafka.Compression {
	switch name {
	case "gzip":
		return kafka.Gzip
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	case "none":
		return 0
	default:
		return kafka.Snappy
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// AgentEvent is an event about an agent, or about an import batch when AgentID is empty
type AgentEvent struct {
	EventType     string          `json:"event_type"` // agent.created, agent.updated, import.checked
	SchemaVersion string          `json:"schema_version"`
	AgentID       string          `json:"agent_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// key partitions agent events by agent so one agent's history stays ordered
func (e *AgentEvent) key() []byte {
	if e.AgentID != "" {
		return []byte(e.AgentID)
	}
	return []byte(e.CorrelationID)
}

// Message builds the Kafka message for an event
func Message(topic string, event *AgentEvent) (kafka.Message, error) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Topic: topic,
		Key:   event.key(),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(event.SchemaVersion)},
		},
	}, nil
}

// PublishAgentEvent publishes an agent event to Kafka
func (p *Producer) PublishAgentEvent(ctx context.Context, event *AgentEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishAgentEvent")
	defer span.End()

	msg, err := Message(p.topic, event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish agent event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"agent_id":   event.AgentID,
	}).Debug("Published agent event")

	return nil
}

// PublishAgentEvents publishes multiple agent events in a batch
func (p *Producer) PublishAgentEvents(ctx context.Context, events []*AgentEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishAgentEvents")
	defer span.End()

	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, len(events))
	for i, event := range events {
		msg, err := Message(p.topic, event)
		if err != nil {
			return err
		}
		messages[i] = msg
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"batch_size": len(events),
		}).Error("Failed to publish agent events batch")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"batch_size": len(events),
	}).Debug("Published agent events batch")

	return nil
}
