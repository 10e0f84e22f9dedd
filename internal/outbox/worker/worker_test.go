package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stokly/fulfillment-service/internal/events"
	"github.com/stokly/fulfillment-service/internal/outbox"
	"github.com/stokly/fulfillment-service/internal/outbox/repository"
	"github.com/stokly/fulfillment-service/pkg/logger"
)

type published struct {
	key   string
	value []byte
}

type fakePublisher struct {
	sent    []published
	failFor map[string]error // keyed by publish key
}

func (p *fakePublisher) Publish(ctx context.Context, key string, value []byte) error {
	if err, ok := p.failFor[key]; ok {
		return err
	}
	p.sent = append(p.sent, published{key: key, value: value})
	return nil
}

func enqueue(t *testing.T, repo *repository.MemoryRepository, aggregateID, eventType string) *outbox.Message {
	t.Helper()
	msg, err := outbox.NewMessage(events.AggregateOrder, aggregateID, eventType, map[string]string{"order_id": aggregateID})
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	if err := repo.Enqueue(context.Background(), msg); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return msg
}

func TestDrainPublishesEnvelopes(t *testing.T) {
	repo := repository.NewMemoryRepository()
	pub := &fakePublisher{}
	w := New(repo, pub, logger.NewNop(), time.Second, 50)

	msg := enqueue(t, repo, "order-1", events.TypeOrderCreated)

	if err := w.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(pub.sent) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pub.sent))
	}
	if pub.sent[0].key != "order-1" {
		t.Fatalf("messages must be keyed by aggregate id, got %q", pub.sent[0].key)
	}

	var env events.Envelope
	if err := json.Unmarshal(pub.sent[0].value, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.EventID != msg.ID || env.EventType != events.TypeOrderCreated || env.AggregateID != "order-1" {
		t.Fatalf("envelope wrong: %+v", env)
	}

	all := repo.All()
	if len(all) != 1 || all[0].Status != outbox.StatusSent || all[0].SentAt == nil {
		t.Fatalf("row should be SENT with a timestamp, got %+v", all[0])
	}
}

func TestDrainSkipsAlreadySent(t *testing.T) {
	repo := repository.NewMemoryRepository()
	pub := &fakePublisher{}
	w := New(repo, pub, logger.NewNop(), time.Second, 50)

	enqueue(t, repo, "order-1", events.TypeOrderCreated)
	if err := w.Drain(context.Background()); err != nil {
		t.Fatalf("first drain: %v", err)
	}
	if err := w.Drain(context.Background()); err != nil {
		t.Fatalf("second drain: %v", err)
	}
	if len(pub.sent) != 1 {
		t.Fatalf("sent rows must not be republished, got %d publishes", len(pub.sent))
	}
}

func TestDrainMarksFailedAndContinues(t *testing.T) {
	repo := repository.NewMemoryRepository()
	pub := &fakePublisher{failFor: map[string]error{"order-bad": errors.New("broker down")}}
	w := New(repo, pub, logger.NewNop(), time.Second, 50)

	bad := enqueue(t, repo, "order-bad", events.TypeOrderCreated)
	good := enqueue(t, repo, "order-good", events.TypeOrderStatusChanged)

	if err := w.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(pub.sent) != 1 || pub.sent[0].key != "order-good" {
		t.Fatalf("the healthy message should still go out, got %+v", pub.sent)
	}

	for _, row := range repo.All() {
		switch row.ID {
		case bad.ID:
			if row.Status != outbox.StatusPending || row.AttemptCount != 1 {
				t.Fatalf("failed row should stay retryable: status=%s attempts=%d", row.Status, row.AttemptCount)
			}
			if row.LastError == nil || *row.LastError != "broker down" {
				t.Fatal("failed row should record the publish error")
			}
		case good.ID:
			if row.Status != outbox.StatusSent {
				t.Fatalf("good row should be SENT, got %s", row.Status)
			}
		}
	}
}

func TestDrainDeadLettersAfterMaxAttempts(t *testing.T) {
	repo := repository.NewMemoryRepository()
	pub := &fakePublisher{failFor: map[string]error{"order-bad": errors.New("broker down")}}
	w := New(repo, pub, logger.NewNop(), time.Second, 50)

	bad := enqueue(t, repo, "order-bad", events.TypeOrderCreated)

	for i := 0; i < outbox.MaxAttempts; i++ {
		if err := w.Drain(context.Background()); err != nil {
			t.Fatalf("drain %d: %v", i+1, err)
		}
	}

	row := repo.All()[0]
	if row.Status != outbox.StatusFailed || row.AttemptCount != outbox.MaxAttempts {
		t.Fatalf("row should be dead-lettered: status=%s attempts=%d", row.Status, row.AttemptCount)
	}

	// Dead-lettered rows are out of the drain loop for good.
	delete(pub.failFor, "order-bad")
	if err := w.Drain(context.Background()); err != nil {
		t.Fatalf("final drain: %v", err)
	}
	if len(pub.sent) != 0 {
		t.Fatalf("FAILED row %s must not be republished, got %d publishes", bad.ID, len(pub.sent))
	}
}
