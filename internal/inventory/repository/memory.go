package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stokly/fulfillment-service/internal/inventory/dto"
	"github.com/stokly/fulfillment-service/internal/model"
)

// MemoryRepository backs the ledger use case without Postgres. It is used by
// the test suites across the service and for local development runs.
type MemoryRepository struct {
	mu         sync.Mutex
	aggregates map[string]model.InventoryAggregate // keyed by SKU id
	lots       map[string]model.Lot
	adjusts    map[string][]model.LotAdjustment // keyed by lot id
	movements  []model.StockMovement
	prices     map[string]float64 // SKU id -> unit price, for StockValue
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		aggregates: make(map[string]model.InventoryAggregate),
		lots:       make(map[string]model.Lot),
		adjusts:    make(map[string][]model.LotAdjustment),
		prices:     make(map[string]float64),
	}
}

// SeedLot registers a lot and folds its quantities into the SKU aggregate.
func (r *MemoryRepository) SeedLot(lot model.Lot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lots[lot.ID] = lot
	agg := r.aggregates[lot.SKUID]
	if agg.SKUID == "" {
		agg = model.InventoryAggregate{ID: "agg-" + lot.SKUID, SKUID: lot.SKUID}
	}
	agg.TotalAvailableStock += lot.CurrentQuantity
	agg.TotalReservedStock += lot.ReservedQuantity
	r.aggregates[lot.SKUID] = agg
}

func (r *MemoryRepository) SeedPrice(skuID string, price float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prices[skuID] = price
}

func (r *MemoryRepository) GetAggregateBySKU(ctx context.Context, skuID string) (*model.InventoryAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agg, ok := r.aggregates[skuID]
	if !ok || agg.DeletedAt != nil {
		return nil, nil
	}
	copied := agg
	return &copied, nil
}

func (r *MemoryRepository) UpsertAggregate(ctx context.Context, agg *model.InventoryAggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggregates[agg.SKUID] = *agg
	return nil
}

func (r *MemoryRepository) ReserveAggregate(ctx context.Context, skuID string, quantity int64) (*model.InventoryAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agg, ok := r.aggregates[skuID]
	if !ok || agg.DeletedAt != nil || agg.TotalAvailableStock < quantity {
		return nil, nil
	}
	agg.TotalAvailableStock -= quantity
	agg.TotalReservedStock += quantity
	r.aggregates[skuID] = agg
	copied := agg
	return &copied, nil
}

func (r *MemoryRepository) ReleaseAggregate(ctx context.Context, skuID string, quantity int64) (*model.InventoryAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agg, ok := r.aggregates[skuID]
	if !ok || agg.DeletedAt != nil || agg.TotalReservedStock < quantity {
		return nil, nil
	}
	agg.TotalAvailableStock += quantity
	agg.TotalReservedStock -= quantity
	r.aggregates[skuID] = agg
	copied := agg
	return &copied, nil
}

func (r *MemoryRepository) ConsumeAggregate(ctx context.Context, skuID string, quantity int64) (*model.InventoryAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agg, ok := r.aggregates[skuID]
	if !ok || agg.DeletedAt != nil || agg.TotalReservedStock < quantity {
		return nil, nil
	}
	agg.TotalReservedStock -= quantity
	r.aggregates[skuID] = agg
	copied := agg
	return &copied, nil
}

func (r *MemoryRepository) ListLowStock(ctx context.Context) ([]model.InventoryAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.InventoryAggregate
	for _, agg := range r.aggregates {
		if agg.DeletedAt == nil && agg.TotalAvailableStock <= agg.LowStockThreshold {
			out = append(out, agg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalAvailableStock < out[j].TotalAvailableStock })
	return out, nil
}

func (r *MemoryRepository) StockValue(ctx context.Context) (*dto.StockValue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var value dto.StockValue
	for skuID, agg := range r.aggregates {
		if agg.DeletedAt != nil {
			continue
		}
		value.TotalValue += float64(agg.TotalAvailableStock) * r.prices[skuID]
		value.ItemCount++
	}
	return &value, nil
}

func (r *MemoryRepository) GetLotByID(ctx context.Context, lotID string) (*model.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[lotID]
	if !ok || lot.DeletedAt != nil {
		return nil, nil
	}
	copied := lot
	return &copied, nil
}

func (r *MemoryRepository) lotsBySKU(skuID string) []model.Lot {
	var out []model.Lot
	for _, lot := range r.lots {
		if lot.SKUID == skuID && lot.DeletedAt == nil {
			out = append(out, lot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ManufacturingDate.Equal(out[j].ManufacturingDate) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ManufacturingDate.Before(out[j].ManufacturingDate)
	})
	return out
}

func (r *MemoryRepository) ListAllocatableLots(ctx context.Context, skuID string) ([]model.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Lot
	for _, lot := range r.lotsBySKU(skuID) {
		if lot.CurrentQuantity > 0 {
			out = append(out, lot)
		}
	}
	return out, nil
}

func (r *MemoryRepository) ListReservedLots(ctx context.Context, skuID string) ([]model.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Lot
	for _, lot := range r.lotsBySKU(skuID) {
		if lot.ReservedQuantity > 0 {
			out = append(out, lot)
		}
	}
	return out, nil
}

func (r *MemoryRepository) UpdateLotQuantities(ctx context.Context, lot *model.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lots[lot.ID] = *lot
	return nil
}

func (r *MemoryRepository) AppendLotAdjustment(ctx context.Context, adj *model.LotAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adjusts[adj.LotID] = append(r.adjusts[adj.LotID], *adj)
	return nil
}

func (r *MemoryRepository) ListAdjustments(lotID string) []model.LotAdjustment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.LotAdjustment, len(r.adjusts[lotID]))
	copy(out, r.adjusts[lotID])
	return out
}

func (r *MemoryRepository) InsertMovement(ctx context.Context, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *MemoryRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.movements {
		if f.SKUID != "" && m.SKUID != f.SKUID {
			continue
		}
		if f.LotID != "" && (m.LotID == nil || *m.LotID != f.LotID) {
			continue
		}
		if f.TransactionType != "" && m.TransactionType != f.TransactionType {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

func (r *MemoryRepository) ListMovementsByLot(ctx context.Context, lotID string) ([]model.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.LotID != nil && *m.LotID == lotID {
			out = append(out, m)
		}
	}
	return out, nil
}

// Lots returns a snapshot of every stored lot, FIFO-ordered per SKU.
func (r *MemoryRepository) Lots(skuID string) []model.Lot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lotsBySKU(skuID)
}

// InsertLot stores a lot without touching the aggregate; the caller adjusts
// the aggregate through the ledger use case.
func (r *MemoryRepository) InsertLot(lot model.Lot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lots[lot.ID] = lot
}

func (r *MemoryRepository) AllLots() []model.Lot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Lot, 0, len(r.lots))
	for _, lot := range r.lots {
		out = append(out, lot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *MemoryRepository) MarkLotDeleted(id string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lot, ok := r.lots[id]; ok {
		lot.DeletedAt = &at
		r.lots[id] = lot
	}
}

// Movements returns a snapshot of the ledger in insertion order.
func (r *MemoryRepository) Movements() []model.StockMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.StockMovement, len(r.movements))
	copy(out, r.movements)
	return out
}
