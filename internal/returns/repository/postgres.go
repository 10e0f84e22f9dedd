package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/internal/returns/dto"
	"github.com/stokly/fulfillment-service/pkg/postgres"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, ret *model.Return) error {
	ext := postgres.Ext(ctx, r.DB)

	returnQuery := `
        INSERT INTO returns (
            id, order_id, user_id, return_number, status, total_refund_amount,
            refund_status, refund_transaction_id, pickup_address, admin_notes,
            created_at, updated_at
        )
        VALUES (
            :id, :order_id, :user_id, :return_number, :status, :total_refund_amount,
            :refund_status, :refund_transaction_id, :pickup_address, :admin_notes,
            :created_at, :updated_at
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, ext, returnQuery, ret); err != nil {
		return err
	}

	itemQuery := `
        INSERT INTO return_items (id, return_id, sku_id, quantity, unit_price, reason_code, description, images)
        VALUES (:id, :return_id, :sku_id, :quantity, :unit_price, :reason_code, :description, :images)
    `
	for i := range ret.Items {
		if _, err := sqlx.NamedExecContext(ctx, ext, itemQuery, &ret.Items[i]); err != nil {
			return err
		}
	}

	for i := range ret.Timeline {
		if err := r.insertTimelineEntry(ctx, &ret.Timeline[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGRepository) insertTimelineEntry(ctx context.Context, entry *model.TimelineEntry) error {
	query := `
        INSERT INTO return_timeline (id, owner_id, status, message, created_at)
        VALUES (:id, :owner_id, :status, :message, :created_at)
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, entry)
	return err
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Return, error) {
	ext := postgres.Ext(ctx, r.DB)

	var ret model.Return
	err := sqlx.GetContext(ctx, ext, &ret, `SELECT * FROM returns WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := sqlx.SelectContext(ctx, ext, &ret.Items,
		`SELECT * FROM return_items WHERE return_id = $1`, id); err != nil {
		return nil, err
	}
	if err := sqlx.SelectContext(ctx, ext, &ret.Timeline,
		`SELECT * FROM return_timeline WHERE owner_id = $1 ORDER BY created_at ASC`, id); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *PGRepository) List(ctx context.Context, f *dto.ReturnFilters) ([]model.Return, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := map[string]interface{}{}

	if f.UserID != "" {
		conditions = append(conditions, "user_id = :user_id")
		args["user_id"] = f.UserID
	}
	if f.OrderID != "" {
		conditions = append(conditions, "order_id = :order_id")
		args["order_id"] = f.OrderID
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")
	ext := postgres.Ext(ctx, r.DB)

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM returns"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	countQuery = ext.Rebind(countQuery)
	if err := sqlx.GetContext(ctx, ext, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM returns" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	listQuery, listArgs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, 0, err
	}
	listQuery = ext.Rebind(listQuery)

	var items []model.Return
	err = sqlx.SelectContext(ctx, ext, &items, listQuery, listArgs...)
	return items, count, err
}

func (r *PGRepository) UpdateStatus(ctx context.Context, returnID string, status model.ReturnStatus, adminNotes *string, entry *model.TimelineEntry) error {
	query := `
        UPDATE returns
        SET status = $1, admin_notes = COALESCE($2, admin_notes), updated_at = $3
        WHERE id = $4 AND deleted_at IS NULL
    `
	res, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, query, status, adminNotes, time.Now(), returnID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return r.insertTimelineEntry(ctx, entry)
}
