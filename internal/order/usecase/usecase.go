package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/stokly/fulfillment-service/internal/apperr"
	"github.com/stokly/fulfillment-service/internal/coupon"
	"github.com/stokly/fulfillment-service/internal/events"
	"github.com/stokly/fulfillment-service/internal/inventory"
	invdto "github.com/stokly/fulfillment-service/internal/inventory/dto"
	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/internal/order"
	"github.com/stokly/fulfillment-service/internal/order/dto"
	"github.com/stokly/fulfillment-service/internal/outbox"
	"github.com/stokly/fulfillment-service/internal/sku"
	"github.com/stokly/fulfillment-service/pkg/logger"
	"github.com/stokly/fulfillment-service/pkg/postgres"
	"go.uber.org/zap"
)

// numberAttempts bounds the unique-index retry loop for generated order
// numbers; the 4-digit suffix collides rarely enough that exhaustion means
// something else is wrong.
const numberAttempts = 5

type orderUseCase struct {
	repo    order.Repository
	skus    sku.Repository
	coupons coupon.UseCase
	ledger  inventory.UseCase
	outbox  outbox.Repository
	txm     postgres.TxManager
	logger  logger.Logger
}

func NewOrderUseCase(
	repo order.Repository,
	skus sku.Repository,
	coupons coupon.UseCase,
	ledger inventory.UseCase,
	outboxRepo outbox.Repository,
	txm postgres.TxManager,
	log logger.Logger,
) order.UseCase {
	return &orderUseCase{
		repo:    repo,
		skus:    skus,
		coupons: coupons,
		ledger:  ledger,
		outbox:  outboxRepo,
		txm:     txm,
		logger:  log,
	}
}

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%s-%04d", time.Now().Format("20060102"), rand.IntN(10000))
}

func (uc *orderUseCase) CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, apperr.Newf(apperr.CodeInvalidInput, "invalid quantity for sku %s", item.SKUID)
		}
	}

	skuIDs := make([]string, 0, len(input.Items))
	for _, item := range input.Items {
		skuIDs = append(skuIDs, item.SKUID)
	}
	catalog, err := uc.skus.BatchGetByIDs(ctx, skuIDs)
	if err != nil {
		return nil, err
	}
	priced := make(map[string]model.SKU, len(catalog))
	for _, s := range catalog {
		priced[s.ID] = s
	}

	now := time.Now()
	orderID := uuid.New().String()

	var subTotal float64
	items := make([]model.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		s, ok := priced[item.SKUID]
		if !ok {
			return nil, apperr.Newf(apperr.CodeNotFound, "sku %s not found", item.SKUID)
		}
		lineTotal := s.Price * float64(item.Quantity)
		subTotal += lineTotal
		items = append(items, model.OrderItem{
			ID:          uuid.New().String(),
			OrderID:     orderID,
			SKUID:       s.ID,
			ProductName: s.Name,
			Quantity:    item.Quantity,
			UnitPrice:   s.Price,
			LineTotal:   lineTotal,
		})
	}

	var applied *model.Coupon
	var discount float64
	if input.CouponCode != "" {
		applied, err = uc.coupons.Validate(ctx, input.CouponCode, subTotal, input.UserID)
		if err != nil {
			return nil, err
		}
		discount = applied.DiscountFor(subTotal)
	}

	o := &model.Order{
		BaseModel:       model.BaseModel{ID: orderID, CreatedAt: now, UpdatedAt: now},
		UserID:          input.UserID,
		Status:          model.OrderPending,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   model.PaymentPending,
		SubTotal:        subTotal,
		DiscountAmount:  discount,
		TaxAmount:       input.TaxAmount,
		ShippingCost:    input.ShippingCost,
		TotalAmount:     subTotal + input.TaxAmount + input.ShippingCost - discount,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		Items:           items,
		Timeline: []model.TimelineEntry{{
			ID:        uuid.New().String(),
			OwnerID:   orderID,
			Status:    string(model.OrderPending),
			Message:   "Order placed",
			CreatedAt: now,
		}},
	}
	if input.CouponCode != "" {
		code := input.CouponCode
		o.CouponCode = &code
	}

	// The generated number carries a random suffix; a unique-index violation
	// regenerates and retries instead of surfacing the collision.
	var createErr error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		o.OrderNumber = generateOrderNumber()
		createErr = uc.txm.WithinTx(ctx, func(ctx context.Context) error {
			if err := uc.repo.Create(ctx, o); err != nil {
				return err
			}
			if applied != nil {
				if err := uc.coupons.RecordRedemption(ctx, applied.ID, input.UserID, o.ID); err != nil {
					return err
				}
			}
			return uc.enqueueOrderCreated(ctx, o)
		})
		if createErr == nil {
			break
		}
		if !postgres.IsUniqueViolation(createErr) {
			return nil, createErr
		}
	}
	if createErr != nil {
		return nil, apperr.Wrap(apperr.CodeConflict, "could not allocate a unique order number", createErr)
	}

	uc.logger.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.Float64("total_amount", o.TotalAmount),
	)
	return o, nil
}

func (uc *orderUseCase) enqueueOrderCreated(ctx context.Context, o *model.Order) error {
	payload := events.OrderCreated{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
	}
	for _, item := range o.Items {
		payload.Items = append(payload.Items, events.OrderCreatedItem{SKUID: item.SKUID, Quantity: item.Quantity})
	}
	msg, err := outbox.NewMessage(events.AggregateOrder, o.ID, events.TypeOrderCreated, payload)
	if err != nil {
		return err
	}
	return uc.outbox.Enqueue(ctx, msg)
}

func (uc *orderUseCase) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	o, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.Newf(apperr.CodeNotFound, "order %s not found", id)
	}
	return o, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error) {
	return uc.repo.List(ctx, filters)
}

func (uc *orderUseCase) UpdateOrderStatus(ctx context.Context, input *dto.UpdateOrderStatusInput) (*model.Order, error) {
	o, err := uc.repo.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.Newf(apperr.CodeNotFound, "order %s not found", input.OrderID)
	}

	previous := o.Status
	next := input.Status
	if !order.CanTransition(previous, next) {
		return nil, apperr.Newf(apperr.CodeInvalidTransition,
			"order %s cannot move from %s to %s", o.OrderNumber, previous, next)
	}

	message := input.Message
	if message == "" {
		message = fmt.Sprintf("Order %s", next)
	}
	entry := &model.TimelineEntry{
		ID:        uuid.New().String(),
		OwnerID:   o.ID,
		Status:    string(next),
		Message:   message,
		CreatedAt: time.Now(),
	}

	// Status write, stock side effect, and outbox rows are one atomic unit.
	err = uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.UpdateStatus(ctx, o.ID, next, entry); err != nil {
			return err
		}
		if err := uc.applyStockSideEffect(ctx, o, previous, next, input.ActorID); err != nil {
			return err
		}
		if err := uc.enqueueShipmentEvents(ctx, o, previous, next); err != nil {
			return err
		}
		return uc.enqueueStatusChanged(ctx, o, previous, next, input.ActorID)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("order status updated",
		zap.String("order_id", o.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
	)
	return uc.repo.GetByID(ctx, o.ID)
}

func (uc *orderUseCase) applyStockSideEffect(ctx context.Context, o *model.Order, previous, next model.OrderStatus, actorID string) error {
	switch {
	case previous == model.OrderPending && next == model.OrderConfirmed:
		return uc.adjustItems(ctx, o, -1, model.TxOrderFulfillment, "order "+o.OrderNumber+" confirmed", actorID)
	case next == model.OrderCancelled && stockWasDeducted(previous):
		return uc.adjustItems(ctx, o, +1, model.TxOrderCancel, "order "+o.OrderNumber+" cancelled", actorID)
	default:
		return nil
	}
}

// stockWasDeducted reports whether the order sits in a post-confirmation
// state, i.e. cancellation must restock its items.
func stockWasDeducted(s model.OrderStatus) bool {
	return s == model.OrderConfirmed || s == model.OrderProcessing || s == model.OrderShipped
}

func (uc *orderUseCase) adjustItems(ctx context.Context, o *model.Order, sign int64, txType model.TransactionType, reason, actorID string) error {
	for _, item := range o.Items {
		_, err := uc.ledger.AdjustStock(ctx, &invdto.AdjustStockInput{
			SKUID:           item.SKUID,
			Delta:           sign * item.Quantity,
			Reason:          reason,
			TransactionType: txType,
			ReferenceID:     o.ID,
			ReferenceType:   model.RefOrder,
			ActorID:         actorID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (uc *orderUseCase) enqueueShipmentEvents(ctx context.Context, o *model.Order, previous, next model.OrderStatus) error {
	if previous == model.OrderProcessing && next == model.OrderShipped {
		msg, err := outbox.NewMessage(events.AggregateOrder, o.ID, events.TypeShipmentRequested,
			events.ShipmentRequested{OrderID: o.ID, OrderNumber: o.OrderNumber})
		if err != nil {
			return err
		}
		return uc.outbox.Enqueue(ctx, msg)
	}
	if previous == model.OrderShipped && next == model.OrderCancelled && o.TrackingID != nil {
		msg, err := outbox.NewMessage(events.AggregateOrder, o.ID, events.TypeShipmentCancel,
			events.ShipmentCancelRequested{OrderID: o.ID, TrackingID: *o.TrackingID})
		if err != nil {
			return err
		}
		return uc.outbox.Enqueue(ctx, msg)
	}
	return nil
}

func (uc *orderUseCase) enqueueStatusChanged(ctx context.Context, o *model.Order, previous, next model.OrderStatus, actorID string) error {
	msg, err := outbox.NewMessage(events.AggregateOrder, o.ID, events.TypeOrderStatusChanged,
		events.OrderStatusChanged{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			Previous:    string(previous),
			Next:        string(next),
			ChangedBy:   actorID,
		})
	if err != nil {
		return err
	}
	return uc.outbox.Enqueue(ctx, msg)
}
