package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/stokly/fulfillment-service/internal/apperr"
	"github.com/stokly/fulfillment-service/internal/events"
	"github.com/stokly/fulfillment-service/internal/inventory"
	invdto "github.com/stokly/fulfillment-service/internal/inventory/dto"
	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/internal/order"
	"github.com/stokly/fulfillment-service/internal/outbox"
	"github.com/stokly/fulfillment-service/internal/returns"
	"github.com/stokly/fulfillment-service/internal/returns/dto"
	"github.com/stokly/fulfillment-service/pkg/logger"
	"github.com/stokly/fulfillment-service/pkg/postgres"
	"go.uber.org/zap"
)

const numberAttempts = 5

type returnUseCase struct {
	repo   returns.Repository
	orders order.Repository
	ledger inventory.UseCase
	outbox outbox.Repository
	txm    postgres.TxManager
	logger logger.Logger
}

func NewReturnUseCase(
	repo returns.Repository,
	orders order.Repository,
	ledger inventory.UseCase,
	outboxRepo outbox.Repository,
	txm postgres.TxManager,
	log logger.Logger,
) returns.UseCase {
	return &returnUseCase{
		repo:   repo,
		orders: orders,
		ledger: ledger,
		outbox: outboxRepo,
		txm:    txm,
		logger: log,
	}
}

func generateReturnNumber() string {
	return fmt.Sprintf("RET-%s-%04d", time.Now().Format("20060102"), rand.IntN(10000))
}

func (uc *returnUseCase) RequestReturn(ctx context.Context, input *dto.RequestReturnInput) (*model.Return, error) {
	if len(input.Items) == 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "return must contain at least one item")
	}

	o, err := uc.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.Newf(apperr.CodeNotFound, "order %s not found", input.OrderID)
	}
	if o.Status != model.OrderDelivered {
		return nil, apperr.Newf(apperr.CodeInvalidTransition,
			"order %s is %s; only delivered orders can be returned", o.OrderNumber, o.Status)
	}

	// Returned items must exist on the order and stay within the ordered
	// quantity; the refund uses the unit price that was actually paid.
	ordered := make(map[string]model.OrderItem, len(o.Items))
	for _, item := range o.Items {
		ordered[item.SKUID] = item
	}

	now := time.Now()
	returnID := uuid.New().String()
	var refund float64
	items := make([]model.ReturnItem, 0, len(input.Items))
	for _, item := range input.Items {
		ordItem, ok := ordered[item.SKUID]
		if !ok {
			return nil, apperr.Newf(apperr.CodeInvalidInput, "sku %s is not part of order %s", item.SKUID, o.OrderNumber)
		}
		if item.Quantity <= 0 || item.Quantity > ordItem.Quantity {
			return nil, apperr.Newf(apperr.CodeInvalidInput,
				"invalid return quantity %d for sku %s", item.Quantity, item.SKUID)
		}
		refund += ordItem.UnitPrice * float64(item.Quantity)
		items = append(items, model.ReturnItem{
			ID:          uuid.New().String(),
			ReturnID:    returnID,
			SKUID:       item.SKUID,
			Quantity:    item.Quantity,
			UnitPrice:   ordItem.UnitPrice,
			ReasonCode:  item.ReasonCode,
			Description: item.Description,
			Images:      item.Images,
		})
	}

	ret := &model.Return{
		BaseModel:         model.BaseModel{ID: returnID, CreatedAt: now, UpdatedAt: now},
		OrderID:           o.ID,
		UserID:            input.UserID,
		Status:            model.ReturnPending,
		TotalRefundAmount: refund,
		RefundStatus:      model.RefundPending,
		PickupAddress:     input.PickupAddress,
		Items:             items,
		Timeline: []model.TimelineEntry{{
			ID:        uuid.New().String(),
			OwnerID:   returnID,
			Status:    string(model.ReturnPending),
			Message:   "Return request submitted",
			CreatedAt: now,
		}},
	}

	var createErr error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		ret.ReturnNumber = generateReturnNumber()
		createErr = uc.repo.Create(ctx, ret)
		if createErr == nil {
			break
		}
		if !postgres.IsUniqueViolation(createErr) {
			return nil, createErr
		}
	}
	if createErr != nil {
		return nil, apperr.Wrap(apperr.CodeConflict, "could not allocate a unique return number", createErr)
	}

	uc.logger.Info("return requested",
		zap.String("return_number", ret.ReturnNumber),
		zap.String("order_id", o.ID),
	)
	return ret, nil
}

func (uc *returnUseCase) GetReturn(ctx context.Context, id string) (*model.Return, error) {
	ret, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, apperr.Newf(apperr.CodeNotFound, "return %s not found", id)
	}
	return ret, nil
}

func (uc *returnUseCase) ListReturns(ctx context.Context, filters *dto.ReturnFilters) ([]model.Return, int, error) {
	return uc.repo.List(ctx, filters)
}

func (uc *returnUseCase) UpdateReturnStatus(ctx context.Context, input *dto.UpdateReturnStatusInput) (*model.Return, error) {
	ret, err := uc.repo.GetByID(ctx, input.ReturnID)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, apperr.Newf(apperr.CodeNotFound, "return %s not found", input.ReturnID)
	}

	previous := ret.Status
	next := input.Status
	if !returns.CanTransition(previous, next) {
		return nil, apperr.Newf(apperr.CodeInvalidTransition,
			"return %s cannot move from %s to %s", ret.ReturnNumber, previous, next)
	}

	entry := &model.TimelineEntry{
		ID:        uuid.New().String(),
		OwnerID:   ret.ID,
		Status:    string(next),
		Message:   fmt.Sprintf("Return %s", next),
		CreatedAt: time.Now(),
	}
	var notes *string
	if input.AdminNotes != "" {
		n := input.AdminNotes
		notes = &n
	}

	err = uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.UpdateStatus(ctx, ret.ID, next, notes, entry); err != nil {
			return err
		}

		// Restock fires exactly once, on the first entry into COMPLETED.
		if next == model.ReturnCompleted && previous != model.ReturnCompleted {
			if err := uc.restock(ctx, ret, input.ActorID); err != nil {
				return err
			}
			if err := uc.markOrderReturned(ctx, ret); err != nil {
				return err
			}
		}

		msg, err := outbox.NewMessage(events.AggregateReturn, ret.ID, events.TypeReturnStatusChanged,
			events.ReturnStatusChanged{
				ReturnID:     ret.ID,
				ReturnNumber: ret.ReturnNumber,
				OrderID:      ret.OrderID,
				Previous:     string(previous),
				Next:         string(next),
			})
		if err != nil {
			return err
		}
		return uc.outbox.Enqueue(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("return status updated",
		zap.String("return_id", ret.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
	)
	return uc.repo.GetByID(ctx, ret.ID)
}

func (uc *returnUseCase) restock(ctx context.Context, ret *model.Return, actorID string) error {
	for _, item := range ret.Items {
		_, err := uc.ledger.AdjustStock(ctx, &invdto.AdjustStockInput{
			SKUID:           item.SKUID,
			Delta:           item.Quantity,
			Reason:          "return " + ret.ReturnNumber + " completed",
			TransactionType: model.TxReturnRestock,
			ReferenceID:     ret.OrderID,
			ReferenceType:   model.RefOrder,
			ActorID:         actorID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// markOrderReturned closes the originating order once its return completes.
func (uc *returnUseCase) markOrderReturned(ctx context.Context, ret *model.Return) error {
	o, err := uc.orders.GetByID(ctx, ret.OrderID)
	if err != nil {
		return err
	}
	if o == nil || o.Status != model.OrderDelivered {
		return nil
	}
	err = uc.orders.UpdateStatus(ctx, o.ID, model.OrderReturned, &model.TimelineEntry{
		ID:        uuid.New().String(),
		OwnerID:   o.ID,
		Status:    string(model.OrderReturned),
		Message:   "Return " + ret.ReturnNumber + " completed",
		CreatedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	// The order transition is announced on the same topic as every other
	// status change, so downstream consumers see the order close.
	msg, err := outbox.NewMessage(events.AggregateOrder, o.ID, events.TypeOrderStatusChanged,
		events.OrderStatusChanged{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			Previous:    string(model.OrderDelivered),
			Next:        string(model.OrderReturned),
		})
	if err != nil {
		return err
	}
	return uc.outbox.Enqueue(ctx, msg)
}
