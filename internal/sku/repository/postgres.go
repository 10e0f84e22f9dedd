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

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.SKU, error) {
	var s model.SKU
	query := `SELECT * FROM skus WHERE id = $1 AND deleted_at IS NULL`
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &s, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGRepository) BatchGetByIDs(ctx context.Context, ids []string) ([]model.SKU, error) {
	if len(ids) == 0 {
		return []model.SKU{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM skus WHERE id IN (?) AND deleted_at IS NULL`, ids)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	var items []model.SKU
	err = sqlx.SelectContext(ctx, postgres.Ext(ctx, r.DB), &items, query, args...)
	return items, err
}
