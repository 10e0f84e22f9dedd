package repository

import (
	"context"
	"sync"

	"github.com/stokly/fulfillment-service/internal/model"
)

type MemoryRepository struct {
	mu          sync.Mutex
	coupons     map[string]model.Coupon // keyed by code
	redemptions []model.CouponRedemption
}

func NewMemoryRepository(seed ...model.Coupon) *MemoryRepository {
	r := &MemoryRepository{coupons: make(map[string]model.Coupon)}
	for _, c := range seed {
		r.coupons[c.Code] = c
	}
	return r
}

func (r *MemoryRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coupons[code]
	if !ok || c.DeletedAt != nil {
		return nil, nil
	}
	copied := c
	return &copied, nil
}

func (r *MemoryRepository) CountRedemptionsByUser(ctx context.Context, couponID, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, red := range r.redemptions {
		if red.CouponID == couponID && red.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) InsertRedemption(ctx context.Context, redemption *model.CouponRedemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redemptions = append(r.redemptions, *redemption)
	return nil
}

func (r *MemoryRepository) IncrementUsage(ctx context.Context, couponID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, c := range r.coupons {
		if c.ID == couponID {
			c.UsageCount++
			r.coupons[code] = c
		}
	}
	return nil
}
