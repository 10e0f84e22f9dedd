package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/internal/order/dto"
)

type MemoryRepository struct {
	mu      sync.Mutex
	orders  map[string]model.Order
	numbers map[string]bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders:  make(map[string]model.Order),
		numbers: make(map[string]bool),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.numbers[o.OrderNumber] {
		// Mirrors the orders_order_number_key unique index.
		return &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
	}
	r.numbers[o.OrderNumber] = true
	r.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.DeletedAt != nil {
		return nil, nil
	}
	copied := cloneOrder(o)
	return &copied, nil
}

func (r *MemoryRepository) List(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if o.DeletedAt != nil {
			continue
		}
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, cloneOrder(o))
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

func (r *MemoryRepository) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, entry *model.TimelineEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	o.Timeline = append(o.Timeline, *entry)
	r.orders[orderID] = o
	return nil
}

func (r *MemoryRepository) UpdateShipment(ctx context.Context, orderID, carrier, trackingID string, eta *time.Time, labelURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil
	}
	o.Carrier = &carrier
	o.TrackingID = &trackingID
	o.EstimatedDelivery = eta
	o.LabelURL = &labelURL
	o.UpdatedAt = time.Now()
	r.orders[orderID] = o
	return nil
}

// ForceNumber marks an order number as taken, so tests can provoke the
// unique-index retry path.
func (r *MemoryRepository) ForceNumber(number string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.numbers[number] = true
}

func cloneOrder(o model.Order) model.Order {
	items := make([]model.OrderItem, len(o.Items))
	copy(items, o.Items)
	timeline := make([]model.TimelineEntry, len(o.Timeline))
	copy(timeline, o.Timeline)
	o.Items = items
	o.Timeline = timeline
	return o
}
