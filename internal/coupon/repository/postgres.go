package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/pkg/postgres"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var c model.Coupon
	query := `SELECT * FROM coupons WHERE code = $1 AND deleted_at IS NULL`
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &c, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) CountRedemptionsByUser(ctx context.Context, couponID, userID string) (int64, error) {
	var count int64
	query := `SELECT count(*) FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2`
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &count, query, couponID, userID)
	return count, err
}

func (r *PGRepository) InsertRedemption(ctx context.Context, redemption *model.CouponRedemption) error {
	query := `
        INSERT INTO coupon_redemptions (id, coupon_id, user_id, order_id, created_at)
        VALUES (:id, :coupon_id, :user_id, :order_id, :created_at)
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, redemption)
	return err
}

func (r *PGRepository) IncrementUsage(ctx context.Context, couponID string) error {
	query := `UPDATE coupons SET usage_count = usage_count + 1, updated_at = now() WHERE id = $1`
	_, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, query, couponID)
	return err
}
