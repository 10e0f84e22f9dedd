package repository

import (
	"context"
	"sync"
	"time"

	"github.com/stokly/fulfillment-service/internal/outbox"
)

// MemoryRepository is an in-memory outbox used by tests and local runs
// without Postgres.
type MemoryRepository struct {
	mu       sync.Mutex
	messages []outbox.Message
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Enqueue(ctx context.Context, msg *outbox.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *MemoryRepository) ListPending(ctx context.Context, limit int) ([]outbox.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []outbox.Message
	for _, m := range r.messages {
		if m.Status == outbox.StatusPending {
			pending = append(pending, m)
			if len(pending) == limit {
				break
			}
		}
	}
	return pending, nil
}

func (r *MemoryRepository) MarkSent(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages {
		if r.messages[i].ID == id {
			now := time.Now()
			r.messages[i].Status = outbox.StatusSent
			r.messages[i].SentAt = &now
		}
	}
	return nil
}

func (r *MemoryRepository) MarkFailed(ctx context.Context, id string, attemptErr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages {
		if r.messages[i].ID == id {
			r.messages[i].AttemptCount++
			e := attemptErr
			r.messages[i].LastError = &e
			if r.messages[i].AttemptCount >= outbox.MaxAttempts {
				r.messages[i].Status = outbox.StatusFailed
			}
		}
	}
	return nil
}

// All returns a copy of every stored message, newest last.
func (r *MemoryRepository) All() []outbox.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]outbox.Message, len(r.messages))
	copy(out, r.messages)
	return out
}
