package dispatcher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stokly/fulfillment-service/internal/apperr"
	"github.com/stokly/fulfillment-service/internal/events"
	"github.com/stokly/fulfillment-service/internal/logistics"
	"github.com/stokly/fulfillment-service/internal/logistics/gateway"
	"github.com/stokly/fulfillment-service/internal/model"
	orderrepo "github.com/stokly/fulfillment-service/internal/order/repository"
	"github.com/stokly/fulfillment-service/pkg/logger"
)

func envelope(t *testing.T, eventType string, payload interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	value, err := json.Marshal(events.Envelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		AggregateType: events.AggregateOrder,
		AggregateID:   "order-1",
		Payload:       raw,
		OccurredAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return value
}

func seedShippedOrder(t *testing.T, orders *orderrepo.MemoryRepository) *model.Order {
	t.Helper()
	o := &model.Order{
		BaseModel:   model.BaseModel{ID: "order-1", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		OrderNumber: "ORD-20260801-0001",
		UserID:      "user-1",
		Status:      model.OrderShipped,
	}
	if err := orders.Create(context.Background(), o); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return o
}

func TestHandleShipmentRequestedBooksOnce(t *testing.T) {
	orders := orderrepo.NewMemoryRepository()
	o := seedShippedOrder(t, orders)
	d := New(nil, gateway.NewNopGateway(), orders, logger.NewNop())
	ctx := context.Background()

	raw := envelope(t, events.TypeShipmentRequested, events.ShipmentRequested{OrderID: o.ID, OrderNumber: o.OrderNumber})
	if err := d.Handle(ctx, raw); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got, err := orders.GetByID(ctx, o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TrackingID == nil || *got.TrackingID != "TRK-000001" {
		t.Fatalf("expected tracking TRK-000001, got %v", got.TrackingID)
	}
	if got.Carrier == nil || *got.Carrier != "internal" {
		t.Fatalf("expected carrier recorded, got %v", got.Carrier)
	}

	// A replayed event must not book a second shipment.
	if err := d.Handle(ctx, raw); err != nil {
		t.Fatalf("replay: %v", err)
	}
	got, _ = orders.GetByID(ctx, o.ID)
	if *got.TrackingID != "TRK-000001" {
		t.Fatalf("replay overwrote the booking: %s", *got.TrackingID)
	}
}

func TestHandleUnknownOrderIsSkipped(t *testing.T) {
	d := New(nil, gateway.NewNopGateway(), orderrepo.NewMemoryRepository(), logger.NewNop())
	raw := envelope(t, events.TypeShipmentRequested, events.ShipmentRequested{OrderID: "missing"})
	if err := d.Handle(context.Background(), raw); err != nil {
		t.Fatalf("unknown orders must be skipped, not fail: %v", err)
	}
}

type cancelRecorder struct {
	logistics.Gateway
	cancelled []string
}

func (c *cancelRecorder) CancelShipment(ctx context.Context, trackingID string) error {
	c.cancelled = append(c.cancelled, trackingID)
	return nil
}

func TestHandleShipmentCancel(t *testing.T) {
	gw := &cancelRecorder{Gateway: gateway.NewNopGateway()}
	d := New(nil, gw, orderrepo.NewMemoryRepository(), logger.NewNop())

	raw := envelope(t, events.TypeShipmentCancel, events.ShipmentCancelRequested{OrderID: "order-1", TrackingID: "TRK-000007"})
	if err := d.Handle(context.Background(), raw); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(gw.cancelled) != 1 || gw.cancelled[0] != "TRK-000007" {
		t.Fatalf("expected cancel for TRK-000007, got %v", gw.cancelled)
	}
}

type flakyGateway struct {
	logistics.Gateway
	failures int
	calls    int
}

func (g *flakyGateway) CreateShipment(ctx context.Context, o *model.Order) (*logistics.Shipment, error) {
	g.calls++
	if g.calls <= g.failures {
		return nil, apperr.Newf(apperr.CodeDependencyUnavailable, "carrier gateway timeout")
	}
	return g.Gateway.CreateShipment(ctx, o)
}

func TestGatewayOutageIsRetriedInPlace(t *testing.T) {
	orders := orderrepo.NewMemoryRepository()
	o := seedShippedOrder(t, orders)
	gw := &flakyGateway{Gateway: gateway.NewNopGateway(), failures: 3}
	d := New(nil, gw, orders, logger.NewNop())
	d.retryDelay = time.Millisecond
	ctx := context.Background()

	raw := envelope(t, events.TypeShipmentRequested, events.ShipmentRequested{OrderID: o.ID, OrderNumber: o.OrderNumber})
	if err := d.handleWithRetry(ctx, raw); err != nil {
		t.Fatalf("transient outage should resolve by retrying: %v", err)
	}
	if gw.calls != 4 {
		t.Fatalf("expected 3 failed attempts plus the booking, got %d calls", gw.calls)
	}

	got, err := orders.GetByID(ctx, o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TrackingID == nil {
		t.Fatal("shipment must eventually be booked once the gateway recovers")
	}
}

func TestGatewayRetryStopsOnCancel(t *testing.T) {
	orders := orderrepo.NewMemoryRepository()
	o := seedShippedOrder(t, orders)
	gw := &flakyGateway{Gateway: gateway.NewNopGateway(), failures: 1 << 30}
	d := New(nil, gw, orders, logger.NewNop())
	d.retryDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	raw := envelope(t, events.TypeShipmentRequested, events.ShipmentRequested{OrderID: o.ID, OrderNumber: o.OrderNumber})
	if err := d.handleWithRetry(ctx, raw); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHandleIgnoresOtherEventTypes(t *testing.T) {
	d := New(nil, gateway.NewNopGateway(), orderrepo.NewMemoryRepository(), logger.NewNop())
	raw := envelope(t, events.TypeOrderCreated, events.OrderCreated{OrderID: "order-1"})
	if err := d.Handle(context.Background(), raw); err != nil {
		t.Fatalf("foreign event types must be ignored: %v", err)
	}
	if err := d.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatal("malformed envelopes should surface an error")
	}
}
