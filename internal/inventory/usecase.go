// Package inventory is the stock ledger service: the sole owner of the
// per-SKU aggregates, the lot quantity counters, and the append-only
// movement ledger. No other component mutates stock directly.
package inventory

import (
	"context"

	"github.com/stokly/fulfillment-service/internal/inventory/dto"
	"github.com/stokly/fulfillment-service/internal/model"
)

type UseCase interface {
	GetSKUInventory(ctx context.Context, skuID string) (*model.InventoryAggregate, error)

	// AdjustStock applies a signed delta to one named lot and the aggregate,
	// or to the aggregate alone when no lot is given (manual correction).
	// Exactly one movement record is written per call.
	AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.InventoryAggregate, error)

	// ReserveStock moves quantity from available to reserved, allocating
	// across the SKU's lots oldest manufacturing date first. All-or-nothing.
	ReserveStock(ctx context.Context, input *dto.ReserveStockInput) (*model.InventoryAggregate, error)

	// ReleaseStock is the aggregate-level inverse of ReserveStock.
	ReleaseStock(ctx context.Context, skuID string, quantity int64) (*model.InventoryAggregate, error)

	// ConsumeReservation settles a hold: reserved units become sold on the
	// oldest lots first and leave the aggregate's reserved pool. Keeps the
	// per-lot equation current + reserved + sold + damaged == initial intact.
	ConsumeReservation(ctx context.Context, skuID string, quantity int64) (*model.InventoryAggregate, error)

	// AllocateFromLot shifts quantity from available to reserved on one lot.
	AllocateFromLot(ctx context.Context, lotID string, quantity int64, actorID string) (*model.Lot, error)

	// AdjustLotStock directly corrects a lot's current quantity, clamped at
	// zero, recording inline lot history plus a ledger entry.
	AdjustLotStock(ctx context.Context, input *dto.AdjustLotStockInput) (*model.Lot, error)

	UpdateThreshold(ctx context.Context, input *dto.UpdateThresholdInput) (*model.InventoryAggregate, error)
	GetLowStockItems(ctx context.Context) ([]model.InventoryAggregate, error)
	GetStockValue(ctx context.Context) (*dto.StockValue, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}
