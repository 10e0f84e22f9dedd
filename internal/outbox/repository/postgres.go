package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stokly/fulfillment-service/internal/outbox"
	"github.com/stokly/fulfillment-service/pkg/postgres"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Enqueue(ctx context.Context, msg *outbox.Message) error {
	query := `
        INSERT INTO outbox_messages (
            id, aggregate_type, aggregate_id, event_type, payload, status, attempt_count, created_at
        )
        VALUES (
            :id, :aggregate_type, :aggregate_id, :event_type, :payload, :status, :attempt_count, :created_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, msg)
	return err
}

func (r *PGRepository) ListPending(ctx context.Context, limit int) ([]outbox.Message, error) {
	var items []outbox.Message
	query := `
        SELECT * FROM outbox_messages
        WHERE status = $1
        ORDER BY created_at
        LIMIT $2
    `
	err := sqlx.SelectContext(ctx, postgres.Ext(ctx, r.DB), &items, query, outbox.StatusPending, limit)
	return items, err
}

func (r *PGRepository) MarkSent(ctx context.Context, id string) error {
	query := `UPDATE outbox_messages SET status = $1, sent_at = $2 WHERE id = $3`
	_, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, query, outbox.StatusSent, time.Now(), id)
	return err
}

func (r *PGRepository) MarkFailed(ctx context.Context, id string, attemptErr string) error {
	// The row stays PENDING and is retried on the next drain; once the
	// attempt counter reaches MaxAttempts it dead-letters to FAILED.
	query := `
        UPDATE outbox_messages
        SET attempt_count = attempt_count + 1,
            last_error = $1,
            status = CASE WHEN attempt_count + 1 >= $2 THEN $3 ELSE status END
        WHERE id = $4
    `
	_, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, query, attemptErr, outbox.MaxAttempts, outbox.StatusFailed, id)
	return err
}
