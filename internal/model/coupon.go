package model

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

type Coupon struct {
	BaseModel
	Code              string       `db:"code" json:"code"`
	DiscountType      DiscountType `db:"discount_type" json:"discount_type"`
	DiscountValue     float64      `db:"discount_value" json:"discount_value"`
	MaxDiscountAmount *float64     `db:"max_discount_amount" json:"max_discount_amount,omitempty"`
	MinOrderAmount    float64      `db:"min_order_amount" json:"min_order_amount"`
	ValidFrom         time.Time    `db:"valid_from" json:"valid_from"`
	ValidUntil        time.Time    `db:"valid_until" json:"valid_until"`
	UsageLimit        *int64       `db:"usage_limit" json:"usage_limit,omitempty"`
	UsageCount        int64        `db:"usage_count" json:"usage_count"`
	PerUserLimit      *int64       `db:"per_user_limit" json:"per_user_limit,omitempty"`
	IsActive          bool         `db:"is_active" json:"is_active"`
}

// DiscountFor computes the discount this coupon grants on orderAmount.
// Percentage discounts are capped by the coupon's configured maximum.
func (c *Coupon) DiscountFor(orderAmount float64) float64 {
	var discount float64
	switch c.DiscountType {
	case DiscountPercentage:
		discount = orderAmount * c.DiscountValue / 100
		if c.MaxDiscountAmount != nil && discount > *c.MaxDiscountAmount {
			discount = *c.MaxDiscountAmount
		}
	case DiscountFixed:
		discount = c.DiscountValue
	}
	if discount > orderAmount {
		discount = orderAmount
	}
	return discount
}

type CouponRedemption struct {
	ID        string    `db:"id" json:"id"`
	CouponID  string    `db:"coupon_id" json:"coupon_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	OrderID   string    `db:"order_id" json:"order_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
