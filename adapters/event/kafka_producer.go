package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/khoahotran/devprofile/internal/application/service"
	"github.com/khoahotran/devprofile/internal/config"
	"github.com/khoahotran/devprofile/pkg/logger"
)

const (
	TopicAccountEvents   = "account.events"
	AccountConsumerGroup = "account-processor-group"
)

type KafkaProducerClient struct {
	AccountEventsWriter *kafka.Writer
	logger              logger.Logger
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	// writer 'account.events', keyed by user so one user's events stay ordered
	accountWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        TopicAccountEvents,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
	}

	log.Info("Initialize Kafka Producers successfully.")

	return &KafkaProducerClient{
		AccountEventsWriter: accountWriter,
		logger:              log,
	}, nil
}

func (c *KafkaProducerClient) PublishAccountEvent(ctx context.Context, evt service.AccountEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal account event: %w", err)
	}
	return c.AccountEventsWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.UserID.String()),
		Value: value,
		Time:  evt.OccurredAt,
	})
}

func (c *KafkaProducerClient) Close() {
	if c.AccountEventsWriter != nil {
		if err := c.AccountEventsWriter.Close(); err != nil {
			c.logger.Error("Failed to close Kafka writer", err)
		}
	}
	c.logger.Info("Closed Kafka Producers")
}

// DecodeAccountEvent parses a message written by PublishAccountEvent.
func DecodeAccountEvent(msg kafka.Message) (service.AccountEvent, error) {
	var evt service.AccountEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return service.AccountEvent{}, fmt.Errorf("unmarshal account event: %w", err)
	}
	if evt.EventType == "" {
		return service.AccountEvent{}, fmt.Errorf("account event without type at offset %d", msg.Offset)
	}
	return evt, nil
}

// NopPublisher drops events; used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishAccountEvent(context.Context, service.AccountEvent) error { return nil }
