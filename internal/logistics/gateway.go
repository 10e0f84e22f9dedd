// Package logistics integrates with the external shipping carrier. Order
// processing never calls the carrier inline; shipment requests travel through
// the outbox and are handled by the dispatcher.
package logistics

import (
	"context"
	"time"

	"github.com/stokly/fulfillment-service/internal/model"
)

// Shipment is the carrier's view of a booked parcel.
type Shipment struct {
	Carrier           string     `json:"carrier"`
	TrackingID        string     `json:"tracking_id"`
	LabelURL          string     `json:"label_url"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
}

// TrackingEvent is one scan point reported by the carrier.
type TrackingEvent struct {
	Status     string    `json:"status"`
	Location   string    `json:"location"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Gateway interface {
	CreateShipment(ctx context.Context, o *model.Order) (*Shipment, error)
	TrackShipment(ctx context.Context, trackingID string) ([]TrackingEvent, error)
	CancelShipment(ctx context.Context, trackingID string) error
}
