package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stokly/fulfillment-service/internal/lot/dto"
	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/pkg/postgres"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, lot *model.Lot) error {
	query := `
        INSERT INTO lots (
            id, lot_number, sku_id, source, supplier_id, manufacturing_date,
            expiry_date, cost_per_unit, initial_quantity, current_quantity,
            reserved_quantity, sold_quantity, damaged_quantity, qc_status,
            notes, created_at, updated_at
        )
        VALUES (
            :id, :lot_number, :sku_id, :source, :supplier_id, :manufacturing_date,
            :expiry_date, :cost_per_unit, :initial_quantity, :current_quantity,
            :reserved_quantity, :sold_quantity, :damaged_quantity, :qc_status,
            :notes, :created_at, :updated_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, lot)
	return err
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Lot, error) {
	var lot model.Lot
	query := `SELECT * FROM lots WHERE id = $1 AND deleted_at IS NULL`
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &lot, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &lot, nil
}

func (r *PGRepository) List(ctx context.Context, f *dto.LotFilters) ([]model.Lot, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := map[string]interface{}{}

	if f.SKUID != "" {
		conditions = append(conditions, "sku_id = :sku_id")
		args["sku_id"] = f.SKUID
	}
	if f.Source != "" {
		conditions = append(conditions, "source = :source")
		args["source"] = f.Source
	}
	if f.QCStatus != "" {
		conditions = append(conditions, "qc_status = :qc_status")
		args["qc_status"] = f.QCStatus
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")
	ext := postgres.Ext(ctx, r.DB)

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM lots"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	countQuery = ext.Rebind(countQuery)
	if err := sqlx.GetContext(ctx, ext, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM lots" + whereClause + " ORDER BY manufacturing_date ASC, created_at ASC"
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

	var items []model.Lot
	err = sqlx.SelectContext(ctx, ext, &items, listQuery, listArgs...)
	return items, count, err
}

func (r *PGRepository) ListExpiring(ctx context.Context, before time.Time) ([]model.Lot, error) {
	var items []model.Lot
	query := `
        SELECT * FROM lots
        WHERE deleted_at IS NULL AND current_quantity > 0 AND expiry_date <= $1
        ORDER BY expiry_date ASC
    `
	err := sqlx.SelectContext(ctx, postgres.Ext(ctx, r.DB), &items, query, before)
	return items, err
}

func (r *PGRepository) ListAdjustments(ctx context.Context, lotID string) ([]model.LotAdjustment, error) {
	var items []model.LotAdjustment
	query := `SELECT * FROM lot_adjustments WHERE lot_id = $1 ORDER BY created_at ASC`
	err := sqlx.SelectContext(ctx, postgres.Ext(ctx, r.DB), &items, query, lotID)
	return items, err
}

func (r *PGRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE lots SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`
	_, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, query, time.Now(), id)
	return err
}
