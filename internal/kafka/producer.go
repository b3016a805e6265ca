package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"songforge/internal/logger"
	"songforge/internal/models"
)

// Producer streams order lifecycle events. One writer per topic, matching
// the created/updated topic split.
type Producer struct {
	createdWriter *kafka.Writer
	updatedWriter *kafka.Writer
	logger        *logger.Logger
}

func NewProducer(brokers []string, createdTopic, updatedTopic string, log *logger.Logger) *Producer {
	return &Producer{
		createdWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   createdTopic,
		}),
		updatedWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   updatedTopic,
		}),
		logger: log,
	}
}

// PublishOrderCreated streams the order creation event.
func (p *Producer) PublishOrderCreated(order models.Order) error {
	return p.publish(p.createdWriter, "order_created", order)
}

// PublishOrderUpdated streams the order update event.
func (p *Producer) PublishOrderUpdated(order models.Order) error {
	return p.publish(p.updatedWriter, "order_updated", order)
}

func (p *Producer) publish(writer *kafka.Writer, kind string, order models.Order) error {
	msgBytes, err := json.Marshal(order)
	if err != nil {
		return err
	}

	p.logger.LogKafka("PUBLISH", kind, fmt.Sprintf("order %s", order.ID))

	return writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(order.ID),
			Value: msgBytes,
		},
	)
}

// Close shuts down both writers.
func (p *Producer) Close() error {
	if err := p.createdWriter.Close(); err != nil {
		return err
	}
	return p.updatedWriter.Close()
}

// Discard is a no-op publisher for deployments that run without Kafka.
// Synchronizer clients fall back to polling.
type Discard struct {
	Logger *logger.Logger
}

func (d Discard) PublishOrderCreated(order models.Order) error {
	d.Logger.Debug("KAFKA", fmt.Sprintf("discarding order_created for %s (kafka disabled)", order.ID))
	return nil
}

func (d Discard) PublishOrderUpdated(order models.Order) error {
	d.Logger.Debug("KAFKA", fmt.Sprintf("discarding order_updated for %s (kafka disabled)", order.ID))
	return nil
}
