package feed

import (
	"context"
	"fmt"

	"songforge/internal/kafka"
	"songforge/internal/logger"
	"songforge/internal/models"
	"songforge/internal/sync"
)

// Bridge pumps Kafka order events into the in-process emitter so both SSE
// clients and synchronizers see the same push feed. Event payloads carry
// only the kind and order ID; subscribers refetch rather than trust them.
type Bridge struct {
	emitter *Emitter
	logger  *logger.Logger

	createdConsumer *kafka.Consumer
	updatedConsumer *kafka.Consumer
}

func NewBridge(emitter *Emitter, brokers []string, createdTopic, updatedTopic, groupID string, log *logger.Logger) *Bridge {
	return &Bridge{
		emitter:         emitter,
		logger:          log,
		createdConsumer: kafka.NewConsumer(brokers, createdTopic, groupID, log),
		updatedConsumer: kafka.NewConsumer(brokers, updatedTopic, groupID, log),
	}
}

// Start runs both consumers until ctx is cancelled.
func (b *Bridge) Start(ctx context.Context) {
	go b.createdConsumer.Start(ctx, func(order models.Order) {
		b.forward("created", order)
	})
	go b.updatedConsumer.Start(ctx, func(order models.Order) {
		b.forward("updated", order)
	})
}

func (b *Bridge) forward(kind string, order models.Order) {
	if order.OwnerID == "" {
		b.logger.Warn("FEED", fmt.Sprintf("dropping %s event with no owner (order %s)", kind, order.ID))
		return
	}
	b.emitter.Emit(order.OwnerID, sync.Event{Kind: kind, OrderID: order.ID})
}

// Close shuts down both consumers.
func (b *Bridge) Close() error {
	if err := b.createdConsumer.Close(); err != nil {
		return err
	}
	return b.updatedConsumer.Close()
}
