package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/sartoria/vetrina/internal/config"
	"github.com/sartoria/vetrina/pkg/models"
)

// InteractionMessage is the wire shape published for every tracked
// interaction. Downstream analytics consumers own the other side.
type InteractionMessage struct {
	Interaction models.Interaction `json:"interaction"`
	Timestamp   time.Time          `json:"timestamp"`
}

// EventBus publishes interaction events to Kafka. Publication is
// best-effort: the ledger insert is the source of truth and a publish
// failure never fails the request.
type EventBus struct {
	writer *kafka.Writer
	logger *logrus.Logger
}

func NewEventBus(cfg *config.Config, logger *logrus.Logger) (*EventBus, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("kafka enabled but no brokers configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topics.Interactions,
		Balancer:     &kafka.Hash{}, // Key by product id so per-product order holds
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	return &EventBus{
		writer: writer,
		logger: logger,
	}, nil
}

func (eb *EventBus) PublishInteraction(ctx context.Context, interaction *models.Interaction) error {
	if eb == nil {
		return nil
	}

	message := InteractionMessage{
		Interaction: *interaction,
		Timestamp:   time.Now(),
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction message: %w", err)
	}

	kafkaMessage := kafka.Message{
		Key:   []byte(interaction.ProductID),
		Value: messageBytes,
		Headers: []kafka.Header{
			{Key: "interaction_id", Value: []byte(interaction.ID.String())},
			{Key: "interaction_type", Value: []byte(interaction.Type)},
		},
	}

	if err := eb.writer.WriteMessages(ctx, kafkaMessage); err != nil {
		eb.logger.WithError(err).WithField("interaction_id", interaction.ID).
			Error("Failed to publish interaction to Kafka")
		return fmt.Errorf("failed to write interaction to Kafka: %w", err)
	}

	eb.logger.WithFields(logrus.Fields{
		"interaction_id":   interaction.ID,
		"product_id":       interaction.ProductID,
		"interaction_type": interaction.Type,
	}).Debug("Interaction published to Kafka")

	return nil
}

func (eb *EventBus) Close() error {
	if eb == nil {
		return nil
	}
	if err := eb.writer.Close(); err != nil {
		return fmt.Errorf("failed to close interaction writer: %w", err)
	}
	return nil
}
