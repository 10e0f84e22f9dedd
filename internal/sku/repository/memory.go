package repository

import (
	"context"
	"sync"

	"github.com/stokly/fulfillment-service/internal/model"
)

type MemoryRepository struct {
	mu   sync.RWMutex
	skus map[string]model.SKU
}

func NewMemoryRepository(seed ...model.SKU) *MemoryRepository {
	r := &MemoryRepository{skus: make(map[string]model.SKU)}
	for _, s := range seed {
		r.skus[s.ID] = s
	}
	return r
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*model.SKU, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.skus[id]
	if !ok || s.DeletedAt != nil {
		return nil, nil
	}
	return &s, nil
}

func (r *MemoryRepository) BatchGetByIDs(ctx context.Context, ids []string) ([]model.SKU, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.SKU
	for _, id := range ids {
		if s, ok := r.skus[id]; ok && s.DeletedAt == nil {
			out = append(out, s)
		}
	}
	return out, nil
}
