// Package outbox persists domain events in the same transaction as the state
// change that produced them; a background worker drains pending rows to Kafka.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending = "PENDING"
	StatusSent    = "SENT"
	StatusFailed  = "FAILED"
)

// MaxAttempts bounds publish retries: a row that fails this many times is
// dead-lettered to FAILED and no longer drained.
const MaxAttempts = 5

type Message struct {
	ID            string          `db:"id" json:"id"`
	AggregateType string          `db:"aggregate_type" json:"aggregate_type"`
	AggregateID   string          `db:"aggregate_id" json:"aggregate_id"`
	EventType     string          `db:"event_type" json:"event_type"`
	Payload       json.RawMessage `db:"payload" json:"payload"`
	Status        string          `db:"status" json:"status"`
	AttemptCount  int             `db:"attempt_count" json:"attempt_count"`
	LastError     *string         `db:"last_error" json:"last_error,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	SentAt        *time.Time      `db:"sent_at" json:"sent_at,omitempty"`
}

// NewMessage marshals payload and builds a pending outbox row.
func NewMessage(aggregateType, aggregateID, eventType string, payload interface{}) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:            uuid.New().String(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
		Status:        StatusPending,
		CreatedAt:     time.Now(),
	}, nil
}

type Repository interface {
	// Enqueue inserts a pending message, joining any ambient transaction.
	Enqueue(ctx context.Context, msg *Message) error
	ListPending(ctx context.Context, limit int) ([]Message, error)
	MarkSent(ctx context.Context, id string) error
	// MarkFailed counts the attempt and records the error; the row stays
	// PENDING until MaxAttempts, then dead-letters to FAILED.
	MarkFailed(ctx context.Context, id string, attemptErr string) error
}
