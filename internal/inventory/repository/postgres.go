package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/stokly/fulfillment-service/internal/inventory/dto"
	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/pkg/postgres"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetAggregateBySKU(ctx context.Context, skuID string) (*model.InventoryAggregate, error) {
	var agg model.InventoryAggregate
	query := `SELECT * FROM inventory_aggregates WHERE sku_id = $1 AND deleted_at IS NULL FOR UPDATE`
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &agg, query, skuID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &agg, nil
}

func (r *PGRepository) UpsertAggregate(ctx context.Context, agg *model.InventoryAggregate) error {
	query := `
        INSERT INTO inventory_aggregates (
            id, sku_id, total_available_stock, total_reserved_stock,
            low_stock_threshold, reorder_point, reorder_quantity,
            last_restocked_at, created_at, updated_at
        )
        VALUES (
            :id, :sku_id, :total_available_stock, :total_reserved_stock,
            :low_stock_threshold, :reorder_point, :reorder_quantity,
            :last_restocked_at, :created_at, :updated_at
        )
        ON CONFLICT (sku_id) DO UPDATE SET
            total_available_stock = EXCLUDED.total_available_stock,
            total_reserved_stock = EXCLUDED.total_reserved_stock,
            low_stock_threshold = EXCLUDED.low_stock_threshold,
            reorder_point = EXCLUDED.reorder_point,
            reorder_quantity = EXCLUDED.reorder_quantity,
            last_restocked_at = EXCLUDED.last_restocked_at,
            updated_at = EXCLUDED.updated_at
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, agg)
	return err
}

func (r *PGRepository) ReserveAggregate(ctx context.Context, skuID string, quantity int64) (*model.InventoryAggregate, error) {
	// Conditional update: the WHERE clause is the oversell guard.
	var agg model.InventoryAggregate
	query := `
        UPDATE inventory_aggregates
        SET total_available_stock = total_available_stock - $2,
            total_reserved_stock = total_reserved_stock + $2,
            updated_at = now()
        WHERE sku_id = $1 AND deleted_at IS NULL AND total_available_stock >= $2
        RETURNING *
    `
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &agg, query, skuID, quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &agg, nil
}

func (r *PGRepository) ReleaseAggregate(ctx context.Context, skuID string, quantity int64) (*model.InventoryAggregate, error) {
	var agg model.InventoryAggregate
	query := `
        UPDATE inventory_aggregates
        SET total_available_stock = total_available_stock + $2,
            total_reserved_stock = total_reserved_stock - $2,
            updated_at = now()
        WHERE sku_id = $1 AND deleted_at IS NULL AND total_reserved_stock >= $2
        RETURNING *
    `
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &agg, query, skuID, quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &agg, nil
}

func (r *PGRepository) ConsumeAggregate(ctx context.Context, skuID string, quantity int64) (*model.InventoryAggregate, error) {
	var agg model.InventoryAggregate
	query := `
        UPDATE inventory_aggregates
        SET total_reserved_stock = total_reserved_stock - $2,
            updated_at = now()
        WHERE sku_id = $1 AND deleted_at IS NULL AND total_reserved_stock >= $2
        RETURNING *
    `
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &agg, query, skuID, quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &agg, nil
}

func (r *PGRepository) ListLowStock(ctx context.Context) ([]model.InventoryAggregate, error) {
	var items []model.InventoryAggregate
	query := `
        SELECT * FROM inventory_aggregates
        WHERE deleted_at IS NULL AND total_available_stock <= low_stock_threshold
        ORDER BY total_available_stock ASC
    `
	err := sqlx.SelectContext(ctx, postgres.Ext(ctx, r.DB), &items, query)
	return items, err
}

func (r *PGRepository) StockValue(ctx context.Context) (*dto.StockValue, error) {
	var value dto.StockValue
	query := `
        SELECT
            COALESCE(SUM(a.total_available_stock * s.price), 0) AS total_value,
            COUNT(*) AS item_count
        FROM inventory_aggregates a
        JOIN skus s ON s.id = a.sku_id AND s.deleted_at IS NULL
        WHERE a.deleted_at IS NULL
    `
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &value, query)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (r *PGRepository) GetLotByID(ctx context.Context, lotID string) (*model.Lot, error) {
	var lot model.Lot
	query := `SELECT * FROM lots WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &lot, query, lotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &lot, nil
}

func (r *PGRepository) ListAllocatableLots(ctx context.Context, skuID string) ([]model.Lot, error) {
	var lots []model.Lot
	query := `
        SELECT * FROM lots
        WHERE sku_id = $1 AND deleted_at IS NULL AND current_quantity > 0
        ORDER BY manufacturing_date ASC, created_at ASC
        FOR UPDATE
    `
	err := sqlx.SelectContext(ctx, postgres.Ext(ctx, r.DB), &lots, query, skuID)
	return lots, err
}

func (r *PGRepository) ListReservedLots(ctx context.Context, skuID string) ([]model.Lot, error) {
	var lots []model.Lot
	query := `
        SELECT * FROM lots
        WHERE sku_id = $1 AND deleted_at IS NULL AND reserved_quantity > 0
        ORDER BY manufacturing_date ASC, created_at ASC
        FOR UPDATE
    `
	err := sqlx.SelectContext(ctx, postgres.Ext(ctx, r.DB), &lots, query, skuID)
	return lots, err
}

func (r *PGRepository) UpdateLotQuantities(ctx context.Context, lot *model.Lot) error {
	query := `
        UPDATE lots
        SET initial_quantity = :initial_quantity,
            current_quantity = :current_quantity,
            reserved_quantity = :reserved_quantity,
            sold_quantity = :sold_quantity,
            damaged_quantity = :damaged_quantity,
            updated_at = :updated_at
        WHERE id = :id AND deleted_at IS NULL
    `
	res, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, lot)
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
	return nil
}

func (r *PGRepository) AppendLotAdjustment(ctx context.Context, adj *model.LotAdjustment) error {
	query := `
        INSERT INTO lot_adjustments (id, lot_id, delta, reason, adjusted_by, created_at)
        VALUES (:id, :lot_id, :delta, :reason, :adjusted_by, :created_at)
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, adj)
	return err
}

func (r *PGRepository) InsertMovement(ctx context.Context, m *model.StockMovement) error {
	query := `
        INSERT INTO stock_movements (
            id, sku_id, lot_id, transaction_type, change_quantity,
            previous_quantity, new_quantity, reference_id, reference_type,
            reason, created_by, created_at
        )
        VALUES (
            :id, :sku_id, :lot_id, :transaction_type, :change_quantity,
            :previous_quantity, :new_quantity, :reference_id, :reference_type,
            :reason, :created_by, :created_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, m)
	return err
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.SKUID != "" {
		conditions = append(conditions, "sku_id = :sku_id")
		args["sku_id"] = f.SKUID
	}
	if f.LotID != "" {
		conditions = append(conditions, "lot_id = :lot_id")
		args["lot_id"] = f.LotID
	}
	if f.TransactionType != "" {
		conditions = append(conditions, "transaction_type = :transaction_type")
		args["transaction_type"] = f.TransactionType
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	ext := postgres.Ext(ctx, r.DB)

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM stock_movements"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	countQuery = ext.Rebind(countQuery)
	if err := sqlx.GetContext(ctx, ext, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM stock_movements" + whereClause + " ORDER BY created_at DESC"
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

	var items []model.StockMovement
	err = sqlx.SelectContext(ctx, ext, &items, listQuery, listArgs...)
	return items, count, err
}

func (r *PGRepository) ListMovementsByLot(ctx context.Context, lotID string) ([]model.StockMovement, error) {
	var items []model.StockMovement
	query := `SELECT * FROM stock_movements WHERE lot_id = $1 ORDER BY created_at DESC`
	err := sqlx.SelectContext(ctx, postgres.Ext(ctx, r.DB), &items, query, lotID)
	return items, err
}
