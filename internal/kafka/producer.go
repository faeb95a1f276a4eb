package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/Suko/forecaster-enterprise-sub006/internal/config"
	"github.com/Suko/forecaster-enterprise-sub006/internal/events"
	"github.com/Suko/forecaster-enterprise-sub006/internal/logging"
)

// Producer publishes forecast-lifecycle events for downstream consumers
// (inventory recompute, dashboards).
type Producer interface {
	// Publish publishes an event to Kafka
	Publish(eventType events.EventType, payload interface{}) error

	// Close closes the producer
	Close() error
}

// KafkaProducer implements the Producer interface using Kafka
type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logging.Logger
}

// NewKafkaProducer creates a new Kafka producer
func NewKafkaProducer(cfg *config.Config, logger *logging.Logger) (Producer, error) {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = getRequiredAcks(cfg.Kafka.RequiredAcks)
	kafkaConfig.Producer.Retry.Max = cfg.Kafka.RetryMax
	kafkaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaProducer{
		producer: producer,
		topic:    cfg.Kafka.Topic,
		logger:   logger,
	}, nil
}

// Publish publishes an event to Kafka. The event key is the event type, so
// all events of one type land on the same partition in order.
func (p *KafkaProducer) Publish(eventType events.EventType, payload interface{}) error {
	event := events.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(eventJSON),
		Key:   sarama.StringEncoder(string(eventType)),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.Debug("event published",
		logging.String("topic", p.topic),
		logging.String("event_type", string(eventType)),
		logging.Int("partition", int(partition)),
		logging.Int64("offset", offset),
	)
	return nil
}

// Close closes the producer
func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}

// getRequiredAcks converts a string to sarama.RequiredAcks
func getRequiredAcks(acks string) sarama.RequiredAcks {
	switch acks {
	case "no":
		return sarama.NoResponse
	case "local":
		return sarama.WaitForLocal
	case "all":
		return sarama.WaitForAll
	default:
		return sarama.WaitForAll
	}
}
