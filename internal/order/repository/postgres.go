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
	"github.com/stokly/fulfillment-service/internal/order/dto"
	"github.com/stokly/fulfillment-service/pkg/postgres"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, o *model.Order) error {
	ext := postgres.Ext(ctx, r.DB)

	orderQuery := `
        INSERT INTO orders (
            id, user_id, order_number, status, payment_method, payment_status,
            coupon_code, sub_total, discount_amount, tax_amount, shipping_cost,
            total_amount, shipping_address, billing_address, created_at, updated_at
        )
        VALUES (
            :id, :user_id, :order_number, :status, :payment_method, :payment_status,
            :coupon_code, :sub_total, :discount_amount, :tax_amount, :shipping_cost,
            :total_amount, :shipping_address, :billing_address, :created_at, :updated_at
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, ext, orderQuery, o); err != nil {
		return err
	}

	itemQuery := `
        INSERT INTO order_items (id, order_id, sku_id, product_name, quantity, unit_price, line_total)
        VALUES (:id, :order_id, :sku_id, :product_name, :quantity, :unit_price, :line_total)
    `
	for i := range o.Items {
		if _, err := sqlx.NamedExecContext(ctx, ext, itemQuery, &o.Items[i]); err != nil {
			return err
		}
	}

	for i := range o.Timeline {
		if err := r.insertTimelineEntry(ctx, &o.Timeline[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGRepository) insertTimelineEntry(ctx context.Context, entry *model.TimelineEntry) error {
	query := `
        INSERT INTO order_timeline (id, owner_id, status, message, created_at)
        VALUES (:id, :owner_id, :status, :message, :created_at)
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, entry)
	return err
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	ext := postgres.Ext(ctx, r.DB)

	var o model.Order
	err := sqlx.GetContext(ctx, ext, &o, `SELECT * FROM orders WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := sqlx.SelectContext(ctx, ext, &o.Items,
		`SELECT * FROM order_items WHERE order_id = $1 ORDER BY product_name`, id); err != nil {
		return nil, err
	}
	if err := sqlx.SelectContext(ctx, ext, &o.Timeline,
		`SELECT * FROM order_timeline WHERE owner_id = $1 ORDER BY created_at ASC`, id); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PGRepository) List(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := map[string]interface{}{}

	if f.UserID != "" {
		conditions = append(conditions, "user_id = :user_id")
		args["user_id"] = f.UserID
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")
	ext := postgres.Ext(ctx, r.DB)

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM orders"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	countQuery = ext.Rebind(countQuery)
	if err := sqlx.GetContext(ctx, ext, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM orders" + whereClause + " ORDER BY created_at DESC"
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

	var items []model.Order
	err = sqlx.SelectContext(ctx, ext, &items, listQuery, listArgs...)
	return items, count, err
}

func (r *PGRepository) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, entry *model.TimelineEntry) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`
	res, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, query, status, time.Now(), orderID)
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

func (r *PGRepository) UpdateShipment(ctx context.Context, orderID, carrier, trackingID string, eta *time.Time, labelURL string) error {
	query := `
        UPDATE orders
        SET carrier = $1, tracking_id = $2, estimated_delivery = $3, label_url = $4, updated_at = $5
        WHERE id = $6 AND deleted_at IS NULL
    `
	_, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, query, carrier, trackingID, eta, labelURL, time.Now(), orderID)
	return err
}
