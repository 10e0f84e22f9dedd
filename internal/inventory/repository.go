package inventory

import (
	"context"

	"github.com/stokly/fulfillment-service/internal/inventory/dto"
	"github.com/stokly/fulfillment-service/internal/model"
)

type Repository interface {
	// Aggregates
	GetAggregateBySKU(ctx context.Context, skuID string) (*model.InventoryAggregate, error)
	UpsertAggregate(ctx context.Context, agg *model.InventoryAggregate) error
	// ReserveAggregate conditionally moves quantity from available to
	// reserved; returns nil, nil when the available check fails, so two
	// concurrent reservations can never both succeed past it.
	ReserveAggregate(ctx context.Context, skuID string, quantity int64) (*model.InventoryAggregate, error)
	ReleaseAggregate(ctx context.Context, skuID string, quantity int64) (*model.InventoryAggregate, error)
	// ConsumeAggregate conditionally drops quantity from reserved without
	// touching available; returns nil, nil when fewer units are reserved.
	ConsumeAggregate(ctx context.Context, skuID string, quantity int64) (*model.InventoryAggregate, error)
	ListLowStock(ctx context.Context) ([]model.InventoryAggregate, error)
	StockValue(ctx context.Context) (*dto.StockValue, error)

	// Lots
	GetLotByID(ctx context.Context, lotID string) (*model.Lot, error)
	// ListAllocatableLots returns the SKU's non-deleted lots with current > 0
	// ordered by manufacturing date then creation, locked for update inside
	// a transaction.
	ListAllocatableLots(ctx context.Context, skuID string) ([]model.Lot, error)
	// ListReservedLots returns the SKU's non-deleted lots with reserved > 0
	// in the same FIFO order.
	ListReservedLots(ctx context.Context, skuID string) ([]model.Lot, error)
	UpdateLotQuantities(ctx context.Context, lot *model.Lot) error
	AppendLotAdjustment(ctx context.Context, adj *model.LotAdjustment) error

	// Ledger
	InsertMovement(ctx context.Context, m *model.StockMovement) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
	ListMovementsByLot(ctx context.Context, lotID string) ([]model.StockMovement, error)
}
