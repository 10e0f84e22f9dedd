package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/internal/returns/dto"
)

type MemoryRepository struct {
	mu      sync.Mutex
	returns map[string]model.Return
	numbers map[string]bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		returns: make(map[string]model.Return),
		numbers: make(map[string]bool),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, ret *model.Return) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.numbers[ret.ReturnNumber] {
		// Mirrors the returns_return_number_key unique index.
		return &pgconn.PgError{Code: "23505", ConstraintName: "returns_return_number_key"}
	}
	r.numbers[ret.ReturnNumber] = true
	r.returns[ret.ID] = cloneReturn(*ret)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*model.Return, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret, ok := r.returns[id]
	if !ok || ret.DeletedAt != nil {
		return nil, nil
	}
	copied := cloneReturn(ret)
	return &copied, nil
}

func (r *MemoryRepository) List(ctx context.Context, f *dto.ReturnFilters) ([]model.Return, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Return
	for _, ret := range r.returns {
		if ret.DeletedAt != nil {
			continue
		}
		if f.UserID != "" && ret.UserID != f.UserID {
			continue
		}
		if f.OrderID != "" && ret.OrderID != f.OrderID {
			continue
		}
		if f.Status != "" && ret.Status != f.Status {
			continue
		}
		out = append(out, cloneReturn(ret))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := len(out)
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * f.PageSize
		if start > total {
			start = total
		}
		end := start + f.PageSize
		if end > total {
			end = total
		}
		out = out[start:end]
	}
	return out, total, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, returnID string, status model.ReturnStatus, adminNotes *string, entry *model.TimelineEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret, ok := r.returns[returnID]
	if !ok {
		return nil
	}
	ret.Status = status
	if adminNotes != nil {
		ret.AdminNotes = adminNotes
	}
	ret.UpdatedAt = time.Now()
	ret.Timeline = append(ret.Timeline, *entry)
	r.returns[returnID] = ret
	return nil
}

// ForceNumber marks a return number as taken, so tests can provoke the
// unique-index retry path.
func (r *MemoryRepository) ForceNumber(number string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.numbers[number] = true
}

func cloneReturn(ret model.Return) model.Return {
	items := make([]model.ReturnItem, len(ret.Items))
	copy(items, ret.Items)
	timeline := make([]model.TimelineEntry, len(ret.Timeline))
	copy(timeline, ret.Timeline)
	ret.Items = items
	ret.Timeline = timeline
	return ret
}
