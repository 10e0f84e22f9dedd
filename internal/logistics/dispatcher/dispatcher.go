// Package dispatcher consumes shipment events from the order events topic and
// drives the carrier gateway. Booking a shipment never happens inside an order
// transaction; it is replayed from here.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/stokly/fulfillment-service/internal/apperr"
	"github.com/stokly/fulfillment-service/internal/events"
	"github.com/stokly/fulfillment-service/internal/logistics"
	"github.com/stokly/fulfillment-service/internal/order"
	"github.com/stokly/fulfillment-service/pkg/logger"
)

// defaultRetryDelay paces in-place retries while the carrier gateway is down.
const defaultRetryDelay = 5 * time.Second

type Consumer interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Dispatcher struct {
	consumer   Consumer
	gateway    logistics.Gateway
	orders     order.Repository
	logger     logger.Logger
	retryDelay time.Duration
}

func New(consumer Consumer, gw logistics.Gateway, orders order.Repository, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		consumer:   consumer,
		gateway:    gw,
		orders:     orders,
		logger:     log,
		retryDelay: defaultRetryDelay,
	}
}

// Run blocks reading the topic until ctx is cancelled. The consumer group has
// already committed the offset by the time Handle runs, so the failure policy
// is split: a DEPENDENCY_UNAVAILABLE error means the carrier gateway is down
// and the event is retried in place (booking is idempotent on the tracking
// id), while any other error is a poisoned event that is logged and skipped
// so it cannot wedge the partition.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("shipment dispatcher started")
	for {
		msg, err := d.consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				d.logger.Info("shipment dispatcher stopped")
				return nil
			}
			return err
		}
		if err := d.handleWithRetry(ctx, msg.Value); err != nil {
			if errors.Is(err, context.Canceled) {
				d.logger.Info("shipment dispatcher stopped")
				return nil
			}
			d.logger.Error("handle shipment event",
				zap.Error(err),
				zap.ByteString("key", msg.Key),
			)
		}
	}
}

func (d *Dispatcher) handleWithRetry(ctx context.Context, raw []byte) error {
	for {
		err := d.Handle(ctx, raw)
		if err == nil || !apperr.IsCode(err, apperr.CodeDependencyUnavailable) {
			return err
		}
		d.logger.Warn("carrier gateway unavailable, retrying",
			zap.Error(err),
			zap.Duration("delay", d.retryDelay),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.retryDelay):
		}
	}
}

func (d *Dispatcher) Handle(ctx context.Context, raw []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}

	switch env.EventType {
	case events.TypeShipmentRequested:
		var payload events.ShipmentRequested
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return err
		}
		return d.createShipment(ctx, payload)
	case events.TypeShipmentCancel:
		var payload events.ShipmentCancelRequested
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return err
		}
		return d.gateway.CancelShipment(ctx, payload.TrackingID)
	default:
		// Other event types on the topic belong to downstream consumers.
		return nil
	}
}

func (d *Dispatcher) createShipment(ctx context.Context, payload events.ShipmentRequested) error {
	o, err := d.orders.GetByID(ctx, payload.OrderID)
	if err != nil {
		return err
	}
	if o == nil {
		d.logger.Warn("shipment requested for unknown order", zap.String("order_id", payload.OrderID))
		return nil
	}
	if o.TrackingID != nil {
		d.logger.Info("shipment already booked",
			zap.String("order_id", o.ID),
			zap.String("tracking_id", *o.TrackingID),
		)
		return nil
	}

	shipment, err := d.gateway.CreateShipment(ctx, o)
	if err != nil {
		return err
	}
	if err := d.orders.UpdateShipment(ctx, o.ID, shipment.Carrier, shipment.TrackingID, shipment.EstimatedDelivery, shipment.LabelURL); err != nil {
		return err
	}
	d.logger.Info("shipment booked",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("carrier", shipment.Carrier),
		zap.String("tracking_id", shipment.TrackingID),
	)
	return nil
}
