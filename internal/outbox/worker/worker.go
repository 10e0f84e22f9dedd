package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stokly/fulfillment-service/internal/events"
	"github.com/stokly/fulfillment-service/internal/outbox"
	"github.com/stokly/fulfillment-service/pkg/logger"
	"go.uber.org/zap"
)

// Publisher is satisfied by broker.KafkaProducer.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Worker drains pending outbox rows to the events topic on a fixed interval.
type Worker struct {
	repo      outbox.Repository
	publisher Publisher
	logger    logger.Logger
	interval  time.Duration
	batchSize int
}

func New(repo outbox.Repository, publisher Publisher, log logger.Logger, interval time.Duration, batchSize int) *Worker {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Worker{
		repo:      repo,
		publisher: publisher,
		logger:    log,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("outbox worker started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("outbox worker stopped")
			return
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				w.logger.Error("failed to drain outbox", zap.Error(err))
			}
		}
	}
}

// Drain publishes one batch of pending messages. Publish failures mark the
// row for retry and do not stop the batch.
func (w *Worker) Drain(ctx context.Context) error {
	pending, err := w.repo.ListPending(ctx, w.batchSize)
	if err != nil {
		return err
	}

	for _, msg := range pending {
		if err := w.publish(ctx, &msg); err != nil {
			w.logger.Error("failed to publish outbox message",
				zap.String("message_id", msg.ID),
				zap.String("event_type", msg.EventType),
				zap.Error(err),
			)
			if markErr := w.repo.MarkFailed(ctx, msg.ID, err.Error()); markErr != nil {
				w.logger.Error("failed to mark outbox message failed", zap.String("message_id", msg.ID), zap.Error(markErr))
			}
			continue
		}
		if err := w.repo.MarkSent(ctx, msg.ID); err != nil {
			w.logger.Error("failed to mark outbox message sent", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}
	return nil
}

func (w *Worker) publish(ctx context.Context, msg *outbox.Message) error {
	envelope := events.Envelope{
		EventID:       msg.ID,
		EventType:     msg.EventType,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		Payload:       msg.Payload,
		OccurredAt:    msg.CreatedAt,
	}
	value, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	// Key by aggregate id so consumers see per-order events in order.
	return w.publisher.Publish(ctx, msg.AggregateID, value)
}
