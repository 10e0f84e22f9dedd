package order

import (
	"context"
	"time"

	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/internal/order/dto"
)

type Repository interface {
	// Create persists the order, its items, and its initial timeline entry.
	Create(ctx context.Context, o *model.Order) error
	// GetByID loads the order with items and timeline; nil, nil when absent.
	GetByID(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)
	// UpdateStatus writes the new status and appends one timeline entry.
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, entry *model.TimelineEntry) error
	UpdateShipment(ctx context.Context, orderID, carrier, trackingID string, eta *time.Time, labelURL string) error
}
