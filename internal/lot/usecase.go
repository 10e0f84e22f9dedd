// Package lot manages batch intake and lot-level queries. All quantity
// mutations go through the inventory ledger service; this package owns
// creation, listing, expiry alerting, and history.
package lot

import (
	"context"

	"github.com/stokly/fulfillment-service/internal/lot/dto"
	"github.com/stokly/fulfillment-service/internal/model"
)

type UseCase interface {
	// CreateLot records a stock intake: the lot row, the aggregate increase,
	// and a LOT_INWARD ledger entry land in one transaction.
	CreateLot(ctx context.Context, input *dto.CreateLotInput) (*model.Lot, error)
	GetLot(ctx context.Context, id string) (*model.Lot, error)
	ListLots(ctx context.Context, filters *dto.LotFilters) ([]model.Lot, int, error)
	GetExpiringLots(ctx context.Context, withinDays int) ([]model.Lot, error)
	// GetLotHistory returns every ledger entry referencing the lot.
	GetLotHistory(ctx context.Context, lotID string) ([]model.StockMovement, error)
	// DeleteLot soft-deletes an emptied lot.
	DeleteLot(ctx context.Context, id string) error
}
