// Package sku is the catalog read side: unit prices for order snapshots and
// stock valuation. Quantities are never stored here.
package sku

import (
	"context"

	"github.com/stokly/fulfillment-service/internal/model"
)

type Repository interface {
	// GetByID returns nil, nil when the SKU does not exist.
	GetByID(ctx context.Context, id string) (*model.SKU, error)
	BatchGetByIDs(ctx context.Context, ids []string) ([]model.SKU, error)
}
