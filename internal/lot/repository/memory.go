package repository

import (
	"context"
	"time"

	invrepo "github.com/stokly/fulfillment-service/internal/inventory/repository"
	"github.com/stokly/fulfillment-service/internal/lot/dto"
	"github.com/stokly/fulfillment-service/internal/model"
)

// MemoryRepository shares lot storage with the inventory memory repository
// so ledger operations and lot queries see the same state in tests.
type MemoryRepository struct {
	inv *invrepo.MemoryRepository
}

func NewMemoryRepository(inv *invrepo.MemoryRepository) *MemoryRepository {
	return &MemoryRepository{inv: inv}
}

func (r *MemoryRepository) Create(ctx context.Context, lot *model.Lot) error {
	r.inv.InsertLot(*lot)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*model.Lot, error) {
	return r.inv.GetLotByID(ctx, id)
}

func (r *MemoryRepository) List(ctx context.Context, f *dto.LotFilters) ([]model.Lot, int, error) {
	var out []model.Lot
	for _, lot := range r.inv.AllLots() {
		if lot.DeletedAt != nil {
			continue
		}
		if f.SKUID != "" && lot.SKUID != f.SKUID {
			continue
		}
		if f.Source != "" && lot.Source != f.Source {
			continue
		}
		if f.QCStatus != "" && lot.QCStatus != f.QCStatus {
			continue
		}
		out = append(out, lot)
	}
	return out, len(out), nil
}

func (r *MemoryRepository) ListExpiring(ctx context.Context, before time.Time) ([]model.Lot, error) {
	var out []model.Lot
	for _, lot := range r.inv.AllLots() {
		if lot.DeletedAt == nil && lot.CurrentQuantity > 0 && !lot.ExpiryDate.After(before) {
			out = append(out, lot)
		}
	}
	return out, nil
}

func (r *MemoryRepository) ListAdjustments(ctx context.Context, lotID string) ([]model.LotAdjustment, error) {
	return r.inv.ListAdjustments(lotID), nil
}

func (r *MemoryRepository) SoftDelete(ctx context.Context, id string) error {
	r.inv.MarkLotDeleted(id, time.Now())
	return nil
}
