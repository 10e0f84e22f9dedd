package order

import (
	"context"

	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/internal/order/dto"
)

type UseCase interface {
	// CreateOrder prices the items, applies an optional coupon, and persists
	// the order as PENDING with one initial timeline entry.
	CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)
	// UpdateOrderStatus moves the order through the state machine; the
	// status write, timeline entry, stock side effect, and outbox rows
	// commit as one transaction.
	UpdateOrderStatus(ctx context.Context, input *dto.UpdateOrderStatusInput) (*model.Order, error)
}
