package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stokly/fulfillment-service/internal/apperr"
	"github.com/stokly/fulfillment-service/internal/coupon/repository"
	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/pkg/logger"
)

func activeCoupon(code string) model.Coupon {
	now := time.Now()
	return model.Coupon{
		BaseModel:     model.BaseModel{ID: "cpn-" + code},
		Code:          code,
		DiscountType:  model.DiscountPercentage,
		DiscountValue: 10,
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(time.Hour),
		IsActive:      true,
	}
}

func TestValidate(t *testing.T) {
	now := time.Now()
	one := int64(1)

	expired := activeCoupon("EXPIRED")
	expired.ValidUntil = now.Add(-time.Minute)

	future := activeCoupon("FUTURE")
	future.ValidFrom = now.Add(time.Hour)
	future.ValidUntil = now.Add(2 * time.Hour)

	inactive := activeCoupon("INACTIVE")
	inactive.IsActive = false

	usedUp := activeCoupon("USEDUP")
	usedUp.UsageLimit = &one
	usedUp.UsageCount = 1

	minOrder := activeCoupon("BIGSPEND")
	minOrder.MinOrderAmount = 100

	perUser := activeCoupon("ONEEACH")
	perUser.PerUserLimit = &one

	repo := repository.NewMemoryRepository(activeCoupon("OK"), expired, future, inactive, usedUp, minOrder, perUser)
	uc := NewCouponUseCase(repo, logger.NewNop())
	ctx := context.Background()

	// Exhaust ONEEACH for user-1 ahead of the table run.
	if err := uc.RecordRedemption(ctx, "cpn-ONEEACH", "user-1", "order-1"); err != nil {
		t.Fatalf("record redemption: %v", err)
	}

	cases := []struct {
		name     string
		code     string
		amount   float64
		userID   string
		wantCode apperr.Code
	}{
		{"valid", "OK", 50, "user-1", ""},
		{"unknown code", "NOPE", 50, "user-1", apperr.CodeInvalidCoupon},
		{"inactive", "INACTIVE", 50, "user-1", apperr.CodeInvalidCoupon},
		{"not yet active", "FUTURE", 50, "user-1", apperr.CodeInvalidCoupon},
		{"expired", "EXPIRED", 50, "user-1", apperr.CodeCouponExpired},
		{"usage limit reached", "USEDUP", 50, "user-1", apperr.CodeCouponUsageLimit},
		{"below minimum order", "BIGSPEND", 50, "user-1", apperr.CodeCouponMinOrder},
		{"per-user limit reached", "ONEEACH", 50, "user-1", apperr.CodeCouponNotAllowed},
		{"per-user limit other user", "ONEEACH", 50, "user-2", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := uc.Validate(ctx, tc.code, tc.amount, tc.userID)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				if got.Code != tc.code {
					t.Fatalf("expected coupon %s, got %s", tc.code, got.Code)
				}
				return
			}
			if !apperr.IsCode(err, tc.wantCode) {
				t.Fatalf("expected %s, got %v", tc.wantCode, err)
			}
		})
	}
}

func TestDiscountFor(t *testing.T) {
	maxDiscount := 5.0
	pct := model.Coupon{DiscountType: model.DiscountPercentage, DiscountValue: 20, MaxDiscountAmount: &maxDiscount}
	if got := pct.DiscountFor(100); got != 5 {
		t.Fatalf("capped percentage: expected 5, got %v", got)
	}
	if got := pct.DiscountFor(20); got != 4 {
		t.Fatalf("uncapped percentage: expected 4, got %v", got)
	}
	fixed := model.Coupon{DiscountType: model.DiscountFixed, DiscountValue: 15}
	if got := fixed.DiscountFor(100); got != 15 {
		t.Fatalf("fixed: expected 15, got %v", got)
	}
	if got := fixed.DiscountFor(10); got != 10 {
		t.Fatalf("fixed discount must not exceed the order amount, got %v", got)
	}
}

func TestRecordRedemptionIncrementsUsage(t *testing.T) {
	repo := repository.NewMemoryRepository(activeCoupon("OK"))
	uc := NewCouponUseCase(repo, logger.NewNop())
	ctx := context.Background()

	if err := uc.RecordRedemption(ctx, "cpn-OK", "user-1", "order-1"); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := repo.GetByCode(ctx, "OK")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UsageCount != 1 {
		t.Fatalf("expected usage count 1, got %d", got.UsageCount)
	}
}
