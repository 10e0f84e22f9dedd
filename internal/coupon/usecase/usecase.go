package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stokly/fulfillment-service/internal/apperr"
	"github.com/stokly/fulfillment-service/internal/coupon"
	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/pkg/logger"
)

type couponUseCase struct {
	repo   coupon.Repository
	logger logger.Logger
}

func NewCouponUseCase(repo coupon.Repository, log logger.Logger) coupon.UseCase {
	return &couponUseCase{repo: repo, logger: log}
}

func (uc *couponUseCase) Validate(ctx context.Context, code string, orderAmount float64, userID string) (*model.Coupon, error) {
	found, err := uc.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if found == nil || !found.IsActive {
		return nil, apperr.Newf(apperr.CodeInvalidCoupon, "coupon %s is not valid", code)
	}

	now := time.Now()
	if now.Before(found.ValidFrom) {
		return nil, apperr.Newf(apperr.CodeInvalidCoupon, "coupon %s is not active yet", code)
	}
	if now.After(found.ValidUntil) {
		return nil, apperr.Newf(apperr.CodeCouponExpired, "coupon %s expired on %s", code, found.ValidUntil.Format("2006-01-02"))
	}
	if found.UsageLimit != nil && found.UsageCount >= *found.UsageLimit {
		return nil, apperr.Newf(apperr.CodeCouponUsageLimit, "coupon %s has reached its usage limit", code)
	}
	if orderAmount < found.MinOrderAmount {
		return nil, apperr.Newf(apperr.CodeCouponMinOrder,
			"coupon %s requires a minimum order of %.2f", code, found.MinOrderAmount)
	}
	if found.PerUserLimit != nil {
		used, err := uc.repo.CountRedemptionsByUser(ctx, found.ID, userID)
		if err != nil {
			return nil, err
		}
		if used >= *found.PerUserLimit {
			return nil, apperr.Newf(apperr.CodeCouponNotAllowed, "coupon %s is exhausted for this user", code)
		}
	}

	return found, nil
}

func (uc *couponUseCase) RecordRedemption(ctx context.Context, couponID, userID, orderID string) error {
	redemption := &model.CouponRedemption{
		ID:        uuid.New().String(),
		CouponID:  couponID,
		UserID:    userID,
		OrderID:   orderID,
		CreatedAt: time.Now(),
	}
	if err := uc.repo.InsertRedemption(ctx, redemption); err != nil {
		return err
	}
	return uc.repo.IncrementUsage(ctx, couponID)
}
