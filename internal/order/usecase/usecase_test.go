package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stokly/fulfillment-service/internal/apperr"
	couponrepo "github.com/stokly/fulfillment-service/internal/coupon/repository"
	couponuc "github.com/stokly/fulfillment-service/internal/coupon/usecase"
	"github.com/stokly/fulfillment-service/internal/events"
	invrepo "github.com/stokly/fulfillment-service/internal/inventory/repository"
	invuc "github.com/stokly/fulfillment-service/internal/inventory/usecase"
	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/internal/order"
	"github.com/stokly/fulfillment-service/internal/order/dto"
	orderrepo "github.com/stokly/fulfillment-service/internal/order/repository"
	outboxrepo "github.com/stokly/fulfillment-service/internal/outbox/repository"
	skurepo "github.com/stokly/fulfillment-service/internal/sku/repository"
	"github.com/stokly/fulfillment-service/pkg/cache"
	"github.com/stokly/fulfillment-service/pkg/logger"
	"github.com/stokly/fulfillment-service/pkg/postgres"
)

type fixture struct {
	orders *orderrepo.MemoryRepository
	inv    *invrepo.MemoryRepository
	outbox *outboxrepo.MemoryRepository
	uc     order.UseCase
}

func newFixture(t *testing.T, skus []model.SKU, coupons ...model.Coupon) *fixture {
	t.Helper()
	log := logger.NewNop()
	inv := invrepo.NewMemoryRepository()
	ledger := invuc.NewLedgerUseCase(inv, postgres.NopTxManager{}, cache.NopLocker{}, log)
	orders := orderrepo.NewMemoryRepository()
	ob := outboxrepo.NewMemoryRepository()
	uc := NewOrderUseCase(
		orders,
		skurepo.NewMemoryRepository(skus...),
		couponuc.NewCouponUseCase(couponrepo.NewMemoryRepository(coupons...), log),
		ledger,
		ob,
		postgres.NopTxManager{},
		log,
	)
	return &fixture{orders: orders, inv: inv, outbox: ob, uc: uc}
}

func widget(price float64) model.SKU {
	return model.SKU{
		BaseModel: model.BaseModel{ID: "sku-1"},
		Code:      "WID-001",
		Name:      "Widget",
		Price:     price,
		IsActive:  true,
	}
}

func (f *fixture) seedStock(skuID string, qty int64) {
	f.inv.SeedLot(model.Lot{
		BaseModel:         model.BaseModel{ID: "lot-" + skuID},
		LotNumber:         "LOT-" + skuID,
		SKUID:             skuID,
		Source:            model.LotSourceSupplier,
		ManufacturingDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:        time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		InitialQuantity:   qty,
		CurrentQuantity:   qty,
		QCStatus:          model.QCPassed,
	})
}

func (f *fixture) eventTypes() []string {
	var out []string
	for _, msg := range f.outbox.All() {
		out = append(out, msg.EventType)
	}
	return out
}

func (f *fixture) hasEvent(eventType string) bool {
	for _, msg := range f.outbox.All() {
		if msg.EventType == eventType {
			return true
		}
	}
	return false
}

func TestCreateOrderPricesItems(t *testing.T) {
	f := newFixture(t, []model.SKU{widget(25)})

	o, err := f.uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		UserID:        "user-1",
		Items:         []dto.CreateOrderItem{{SKUID: "sku-1", Quantity: 2}},
		PaymentMethod: "card",
		TaxAmount:     5,
		ShippingCost:  10,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.Status != model.OrderPending {
		t.Fatalf("new order should be PENDING, got %s", o.Status)
	}
	if o.SubTotal != 50 || o.TotalAmount != 65 {
		t.Fatalf("pricing wrong: subtotal=%v total=%v", o.SubTotal, o.TotalAmount)
	}
	if !strings.HasPrefix(o.OrderNumber, "ORD-") {
		t.Fatalf("unexpected order number %q", o.OrderNumber)
	}
	if len(o.Items) != 1 || o.Items[0].LineTotal != 50 || o.Items[0].ProductName != "Widget" {
		t.Fatalf("item snapshot wrong: %+v", o.Items)
	}
	if len(o.Timeline) != 1 || o.Timeline[0].Status != string(model.OrderPending) {
		t.Fatalf("expected one PENDING timeline entry, got %+v", o.Timeline)
	}
	if !f.hasEvent(events.TypeOrderCreated) {
		t.Fatalf("expected ORDER_CREATED in outbox, got %v", f.eventTypes())
	}
}

func TestCreateOrderAppliesCoupon(t *testing.T) {
	now := time.Now()
	f := newFixture(t, []model.SKU{widget(25)}, model.Coupon{
		BaseModel:     model.BaseModel{ID: "cpn-1"},
		Code:          "SAVE10",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: 10,
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(time.Hour),
		IsActive:      true,
	})

	o, err := f.uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		UserID:     "user-1",
		Items:      []dto.CreateOrderItem{{SKUID: "sku-1", Quantity: 2}},
		CouponCode: "SAVE10",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.DiscountAmount != 5 || o.TotalAmount != 45 {
		t.Fatalf("discount wrong: discount=%v total=%v", o.DiscountAmount, o.TotalAmount)
	}
	if o.CouponCode == nil || *o.CouponCode != "SAVE10" {
		t.Fatal("order should record the coupon code")
	}
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	f := newFixture(t, []model.SKU{widget(25)})
	ctx := context.Background()

	_, err := f.uc.CreateOrder(ctx, &dto.CreateOrderInput{UserID: "user-1"})
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Fatalf("empty order: expected INVALID_INPUT, got %v", err)
	}
	_, err = f.uc.CreateOrder(ctx, &dto.CreateOrderInput{
		UserID: "user-1",
		Items:  []dto.CreateOrderItem{{SKUID: "sku-1", Quantity: 0}},
	})
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Fatalf("zero quantity: expected INVALID_INPUT, got %v", err)
	}
	_, err = f.uc.CreateOrder(ctx, &dto.CreateOrderInput{
		UserID: "user-1",
		Items:  []dto.CreateOrderItem{{SKUID: "sku-missing", Quantity: 1}},
	})
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("unknown sku: expected NOT_FOUND, got %v", err)
	}
}

func TestCreateOrderNumberExhaustion(t *testing.T) {
	f := newFixture(t, []model.SKU{widget(25)})

	// Occupy every possible suffix for today and tomorrow so each generated
	// number collides regardless of when the retries run.
	for _, day := range []time.Time{time.Now(), time.Now().AddDate(0, 0, 1)} {
		date := day.Format("20060102")
		for i := 0; i < 10000; i++ {
			f.orders.ForceNumber(fmt.Sprintf("ORD-%s-%04d", date, i))
		}
	}

	_, err := f.uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		UserID: "user-1",
		Items:  []dto.CreateOrderItem{{SKUID: "sku-1", Quantity: 1}},
	})
	if !apperr.IsCode(err, apperr.CodeConflict) {
		t.Fatalf("expected CONFLICT after retry exhaustion, got %v", err)
	}
}

func TestUpdateOrderStatusRejectsSkippedStep(t *testing.T) {
	f := newFixture(t, []model.SKU{widget(25)})
	o, err := f.uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		UserID: "user-1",
		Items:  []dto.CreateOrderItem{{SKUID: "sku-1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.uc.UpdateOrderStatus(context.Background(), &dto.UpdateOrderStatusInput{
		OrderID: o.ID,
		Status:  model.OrderShipped,
	})
	if !apperr.IsCode(err, apperr.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}

	got, err := f.uc.GetOrder(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.OrderPending || len(got.Timeline) != 1 {
		t.Fatalf("rejected transition must not touch the order: status=%s timeline=%d", got.Status, len(got.Timeline))
	}
}

func TestConfirmDeductsStockAndCancelRestocks(t *testing.T) {
	f := newFixture(t, []model.SKU{widget(25)})
	f.seedStock("sku-1", 10)
	ctx := context.Background()

	o, err := f.uc.CreateOrder(ctx, &dto.CreateOrderInput{
		UserID: "user-1",
		Items:  []dto.CreateOrderItem{{SKUID: "sku-1", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	o, err = f.uc.UpdateOrderStatus(ctx, &dto.UpdateOrderStatusInput{OrderID: o.ID, Status: model.OrderConfirmed, ActorID: "admin-1"})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if o.Status != model.OrderConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", o.Status)
	}

	movements := f.inv.Movements()
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement after confirm, got %d", len(movements))
	}
	m := movements[0]
	if m.TransactionType != model.TxOrderFulfillment || m.ChangeQuantity != -2 {
		t.Fatalf("confirm movement wrong: type=%s change=%d", m.TransactionType, m.ChangeQuantity)
	}
	if m.ReferenceID == nil || *m.ReferenceID != o.ID || m.ReferenceType == nil || *m.ReferenceType != model.RefOrder {
		t.Fatal("confirm movement should reference the order")
	}

	o, err = f.uc.UpdateOrderStatus(ctx, &dto.UpdateOrderStatusInput{OrderID: o.ID, Status: model.OrderCancelled, ActorID: "admin-1"})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if o.Status != model.OrderCancelled {
		t.Fatalf("expected CANCELLED, got %s", o.Status)
	}

	movements = f.inv.Movements()
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements after cancel, got %d", len(movements))
	}
	restock := movements[1]
	if restock.TransactionType != model.TxOrderCancel || restock.ChangeQuantity != 2 {
		t.Fatalf("cancel movement wrong: type=%s change=%d", restock.TransactionType, restock.ChangeQuantity)
	}
	if restock.NewQuantity != 10 {
		t.Fatalf("cancel should restore available stock to 10, got %d", restock.NewQuantity)
	}

	if !f.hasEvent(events.TypeOrderStatusChanged) {
		t.Fatalf("expected ORDER_STATUS_CHANGED in outbox, got %v", f.eventTypes())
	}
}

func TestProcessingStepsDoNotTouchStock(t *testing.T) {
	f := newFixture(t, []model.SKU{widget(25)})
	f.seedStock("sku-1", 10)
	ctx := context.Background()

	o, err := f.uc.CreateOrder(ctx, &dto.CreateOrderInput{
		UserID: "user-1",
		Items:  []dto.CreateOrderItem{{SKUID: "sku-1", Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, next := range []model.OrderStatus{model.OrderConfirmed, model.OrderProcessing, model.OrderShipped, model.OrderDelivered} {
		if o, err = f.uc.UpdateOrderStatus(ctx, &dto.UpdateOrderStatusInput{OrderID: o.ID, Status: next}); err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
	}

	// Only the PENDING->CONFIRMED step moves stock.
	if got := len(f.inv.Movements()); got != 1 {
		t.Fatalf("expected 1 movement across the whole happy path, got %d", got)
	}
	agg, err := f.inv.GetAggregateBySKU(ctx, "sku-1")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.TotalAvailableStock != 7 {
		t.Fatalf("expected 7 available after fulfilling 3, got %d", agg.TotalAvailableStock)
	}
}

func TestShippedEnqueuesShipmentRequest(t *testing.T) {
	f := newFixture(t, []model.SKU{widget(25)})
	f.seedStock("sku-1", 10)
	ctx := context.Background()

	o, err := f.uc.CreateOrder(ctx, &dto.CreateOrderInput{
		UserID: "user-1",
		Items:  []dto.CreateOrderItem{{SKUID: "sku-1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, next := range []model.OrderStatus{model.OrderConfirmed, model.OrderProcessing} {
		if o, err = f.uc.UpdateOrderStatus(ctx, &dto.UpdateOrderStatusInput{OrderID: o.ID, Status: next}); err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
	}
	if f.hasEvent(events.TypeShipmentRequested) {
		t.Fatal("shipment must not be requested before the order ships")
	}

	if _, err = f.uc.UpdateOrderStatus(ctx, &dto.UpdateOrderStatusInput{OrderID: o.ID, Status: model.OrderShipped}); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if !f.hasEvent(events.TypeShipmentRequested) {
		t.Fatalf("expected SHIPMENT_REQUESTED in outbox, got %v", f.eventTypes())
	}
}

func TestUpdateOrderStatusUnknownOrder(t *testing.T) {
	f := newFixture(t, []model.SKU{widget(25)})
	_, err := f.uc.UpdateOrderStatus(context.Background(), &dto.UpdateOrderStatusInput{
		OrderID: "missing",
		Status:  model.OrderConfirmed,
	})
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
