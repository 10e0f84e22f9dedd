package lot

import (
	"context"
	"time"

	"github.com/stokly/fulfillment-service/internal/lot/dto"
	"github.com/stokly/fulfillment-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, lot *model.Lot) error
	// GetByID returns nil, nil when the lot does not exist or is deleted.
	GetByID(ctx context.Context, id string) (*model.Lot, error)
	List(ctx context.Context, filters *dto.LotFilters) ([]model.Lot, int, error)
	ListExpiring(ctx context.Context, before time.Time) ([]model.Lot, error)
	ListAdjustments(ctx context.Context, lotID string) ([]model.LotAdjustment, error)
	SoftDelete(ctx context.Context, id string) error
}
