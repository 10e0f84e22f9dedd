package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stokly/fulfillment-service/internal/apperr"
	"github.com/stokly/fulfillment-service/internal/events"
	invrepo "github.com/stokly/fulfillment-service/internal/inventory/repository"
	invuc "github.com/stokly/fulfillment-service/internal/inventory/usecase"
	"github.com/stokly/fulfillment-service/internal/model"
	orderrepo "github.com/stokly/fulfillment-service/internal/order/repository"
	outboxrepo "github.com/stokly/fulfillment-service/internal/outbox/repository"
	"github.com/stokly/fulfillment-service/internal/returns"
	"github.com/stokly/fulfillment-service/internal/returns/dto"
	returnrepo "github.com/stokly/fulfillment-service/internal/returns/repository"
	"github.com/stokly/fulfillment-service/pkg/cache"
	"github.com/stokly/fulfillment-service/pkg/logger"
	"github.com/stokly/fulfillment-service/pkg/postgres"
)

type fixture struct {
	orders *orderrepo.MemoryRepository
	inv    *invrepo.MemoryRepository
	outbox *outboxrepo.MemoryRepository
	uc     returns.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewNop()
	inv := invrepo.NewMemoryRepository()
	orders := orderrepo.NewMemoryRepository()
	ob := outboxrepo.NewMemoryRepository()
	uc := NewReturnUseCase(
		returnrepo.NewMemoryRepository(),
		orders,
		invuc.NewLedgerUseCase(inv, postgres.NopTxManager{}, cache.NopLocker{}, log),
		ob,
		postgres.NopTxManager{},
		log,
	)
	return &fixture{orders: orders, inv: inv, outbox: ob, uc: uc}
}

// seedOrder stores an order with one line of the given sku, quantity and
// unit price in the given status.
func (f *fixture) seedOrder(t *testing.T, status model.OrderStatus, skuID string, qty int64, price float64) *model.Order {
	t.Helper()
	now := time.Now()
	orderID := uuid.New().String()
	o := &model.Order{
		BaseModel:   model.BaseModel{ID: orderID, CreatedAt: now, UpdatedAt: now},
		OrderNumber: "ORD-20260801-" + orderID[:4],
		UserID:      "user-1",
		Status:      status,
		SubTotal:    price * float64(qty),
		TotalAmount: price * float64(qty),
		Items: []model.OrderItem{{
			ID:          uuid.New().String(),
			OrderID:     orderID,
			SKUID:       skuID,
			ProductName: "Widget",
			Quantity:    qty,
			UnitPrice:   price,
			LineTotal:   price * float64(qty),
		}},
	}
	if err := f.orders.Create(context.Background(), o); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return o
}

func TestRequestReturnRequiresDeliveredOrder(t *testing.T) {
	f := newFixture(t)
	o := f.seedOrder(t, model.OrderShipped, "sku-1", 2, 20)

	_, err := f.uc.RequestReturn(context.Background(), &dto.RequestReturnInput{
		OrderID: o.ID,
		UserID:  "user-1",
		Items:   []dto.RequestReturnItem{{SKUID: "sku-1", Quantity: 1, ReasonCode: "DAMAGED"}},
	})
	if !apperr.IsCode(err, apperr.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
}

func TestRequestReturnValidatesItems(t *testing.T) {
	f := newFixture(t)
	o := f.seedOrder(t, model.OrderDelivered, "sku-1", 2, 20)
	ctx := context.Background()

	_, err := f.uc.RequestReturn(ctx, &dto.RequestReturnInput{OrderID: o.ID, UserID: "user-1"})
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Fatalf("empty return: expected INVALID_INPUT, got %v", err)
	}
	_, err = f.uc.RequestReturn(ctx, &dto.RequestReturnInput{
		OrderID: o.ID,
		UserID:  "user-1",
		Items:   []dto.RequestReturnItem{{SKUID: "sku-other", Quantity: 1}},
	})
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Fatalf("foreign sku: expected INVALID_INPUT, got %v", err)
	}
	_, err = f.uc.RequestReturn(ctx, &dto.RequestReturnInput{
		OrderID: o.ID,
		UserID:  "user-1",
		Items:   []dto.RequestReturnItem{{SKUID: "sku-1", Quantity: 3}},
	})
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Fatalf("over-quantity: expected INVALID_INPUT, got %v", err)
	}
}

func TestRequestReturnComputesRefund(t *testing.T) {
	f := newFixture(t)
	o := f.seedOrder(t, model.OrderDelivered, "sku-1", 3, 12.5)

	ret, err := f.uc.RequestReturn(context.Background(), &dto.RequestReturnInput{
		OrderID: o.ID,
		UserID:  "user-1",
		Items:   []dto.RequestReturnItem{{SKUID: "sku-1", Quantity: 2, ReasonCode: "WRONG_SIZE"}},
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if ret.Status != model.ReturnPending {
		t.Fatalf("new return should be PENDING, got %s", ret.Status)
	}
	if ret.TotalRefundAmount != 25 {
		t.Fatalf("expected refund 25.00, got %v", ret.TotalRefundAmount)
	}
	if ret.RefundStatus != model.RefundPending {
		t.Fatalf("expected refund status PENDING, got %s", ret.RefundStatus)
	}
	if len(ret.Timeline) != 1 || ret.Timeline[0].Status != string(model.ReturnPending) {
		t.Fatalf("expected one PENDING timeline entry, got %+v", ret.Timeline)
	}
}

func TestUpdateReturnStatusRejectsSkippedStep(t *testing.T) {
	f := newFixture(t)
	o := f.seedOrder(t, model.OrderDelivered, "sku-1", 2, 20)
	ret, err := f.uc.RequestReturn(context.Background(), &dto.RequestReturnInput{
		OrderID: o.ID,
		UserID:  "user-1",
		Items:   []dto.RequestReturnItem{{SKUID: "sku-1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	for _, next := range []model.ReturnStatus{model.ReturnReceived, model.ReturnCompleted, model.ReturnPickedUp} {
		_, err = f.uc.UpdateReturnStatus(context.Background(), &dto.UpdateReturnStatusInput{ReturnID: ret.ID, Status: next})
		if !apperr.IsCode(err, apperr.CodeInvalidTransition) {
			t.Fatalf("PENDING->%s: expected INVALID_TRANSITION, got %v", next, err)
		}
	}
	if len(f.inv.Movements()) != 0 {
		t.Fatal("rejected transitions must not touch stock")
	}
}

func TestCompletedReturnRestocksOnce(t *testing.T) {
	f := newFixture(t)
	o := f.seedOrder(t, model.OrderDelivered, "sku-1", 2, 20)
	ctx := context.Background()

	ret, err := f.uc.RequestReturn(ctx, &dto.RequestReturnInput{
		OrderID: o.ID,
		UserID:  "user-1",
		Items:   []dto.RequestReturnItem{{SKUID: "sku-1", Quantity: 2, ReasonCode: "DAMAGED"}},
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	for _, next := range []model.ReturnStatus{model.ReturnApproved, model.ReturnPickedUp, model.ReturnReceived} {
		if ret, err = f.uc.UpdateReturnStatus(ctx, &dto.UpdateReturnStatusInput{ReturnID: ret.ID, Status: next}); err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
	}
	if len(f.inv.Movements()) != 0 {
		t.Fatal("stock must not move before completion")
	}

	ret, err = f.uc.UpdateReturnStatus(ctx, &dto.UpdateReturnStatusInput{ReturnID: ret.ID, Status: model.ReturnCompleted, ActorID: "admin-1"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	movements := f.inv.Movements()
	if len(movements) != 1 {
		t.Fatalf("expected 1 restock movement, got %d", len(movements))
	}
	m := movements[0]
	if m.TransactionType != model.TxReturnRestock || m.ChangeQuantity != 2 {
		t.Fatalf("restock movement wrong: type=%s change=%d", m.TransactionType, m.ChangeQuantity)
	}

	got, err := f.orders.GetByID(ctx, o.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Status != model.OrderReturned {
		t.Fatalf("completing the return should close the order, got %s", got.Status)
	}

	// A repeated COMPLETED write is a legal no-op and must not restock again.
	if _, err = f.uc.UpdateReturnStatus(ctx, &dto.UpdateReturnStatusInput{ReturnID: ret.ID, Status: model.ReturnCompleted}); err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
	if len(f.inv.Movements()) != 1 {
		t.Fatalf("restock fired twice: %d movements", len(f.inv.Movements()))
	}

	var statusEvents, orderEvents int
	for _, msg := range f.outbox.All() {
		switch msg.EventType {
		case events.TypeReturnStatusChanged:
			statusEvents++
		case events.TypeOrderStatusChanged:
			orderEvents++
			var payload events.OrderStatusChanged
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				t.Fatalf("unmarshal order event: %v", err)
			}
			if payload.OrderID != o.ID || payload.Previous != string(model.OrderDelivered) || payload.Next != string(model.OrderReturned) {
				t.Fatalf("order close event wrong: %+v", payload)
			}
		}
	}
	if statusEvents != 5 {
		t.Fatalf("expected 5 RETURN_STATUS_CHANGED events, got %d", statusEvents)
	}
	// Closing the order is announced once, alongside the return's own events.
	if orderEvents != 1 {
		t.Fatalf("expected 1 ORDER_STATUS_CHANGED event, got %d", orderEvents)
	}
}

func TestRejectedReturnLeavesStockAlone(t *testing.T) {
	f := newFixture(t)
	o := f.seedOrder(t, model.OrderDelivered, "sku-1", 1, 20)
	ctx := context.Background()

	ret, err := f.uc.RequestReturn(ctx, &dto.RequestReturnInput{
		OrderID: o.ID,
		UserID:  "user-1",
		Items:   []dto.RequestReturnItem{{SKUID: "sku-1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	ret, err = f.uc.UpdateReturnStatus(ctx, &dto.UpdateReturnStatusInput{ReturnID: ret.ID, Status: model.ReturnRejected, AdminNotes: "outside the return window"})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if ret.Status != model.ReturnRejected {
		t.Fatalf("expected REJECTED, got %s", ret.Status)
	}
	if ret.AdminNotes == nil || *ret.AdminNotes != "outside the return window" {
		t.Fatal("admin notes should be recorded on rejection")
	}
	if len(f.inv.Movements()) != 0 {
		t.Fatal("rejection must not restock")
	}
	got, _ := f.orders.GetByID(ctx, o.ID)
	if got.Status != model.OrderDelivered {
		t.Fatalf("order must stay DELIVERED after rejection, got %s", got.Status)
	}
}
