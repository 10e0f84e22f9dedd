// Package coupon validates discount codes during order creation. Coupon
// definition CRUD lives in the surrounding back office, not here.
package coupon

import (
	"context"

	"github.com/stokly/fulfillment-service/internal/model"
)

type UseCase interface {
	// Validate checks a code against its validity window, usage caps, and
	// order minimum, returning the coupon on success.
	Validate(ctx context.Context, code string, orderAmount float64, userID string) (*model.Coupon, error)
	// RecordRedemption bumps the usage counter and ties the redemption to
	// an order, joining any ambient transaction.
	RecordRedemption(ctx context.Context, couponID, userID, orderID string) error
}

type Repository interface {
	// GetByCode returns nil, nil when no active coupon matches.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	CountRedemptionsByUser(ctx context.Context, couponID, userID string) (int64, error)
	InsertRedemption(ctx context.Context, redemption *model.CouponRedemption) error
	IncrementUsage(ctx context.Context, couponID string) error
}
