package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stokly/fulfillment-service/internal/apperr"
	"github.com/stokly/fulfillment-service/internal/inventory"
	"github.com/stokly/fulfillment-service/internal/inventory/dto"
	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/pkg/cache"
	"github.com/stokly/fulfillment-service/pkg/logger"
	"github.com/stokly/fulfillment-service/pkg/postgres"
	"go.uber.org/zap"
)

const (
	lockTTL        = 5 * time.Second
	lockRetries    = 3
	lockRetryDelay = 100 * time.Millisecond
)

type ledgerUseCase struct {
	repo   inventory.Repository
	txm    postgres.TxManager
	locker cache.Locker
	logger logger.Logger
}

func NewLedgerUseCase(repo inventory.Repository, txm postgres.TxManager, locker cache.Locker, log logger.Logger) inventory.UseCase {
	return &ledgerUseCase{
		repo:   repo,
		txm:    txm,
		locker: locker,
		logger: log,
	}
}

func (uc *ledgerUseCase) GetSKUInventory(ctx context.Context, skuID string) (*model.InventoryAggregate, error) {
	agg, err := uc.repo.GetAggregateBySKU(ctx, skuID)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		// A SKU with no stock history reads as zero inventory.
		return &model.InventoryAggregate{SKUID: skuID}, nil
	}
	return agg, nil
}

// withSKULock serializes stock mutations per SKU behind a redis lock, on top
// of the row locks taken inside the transaction.
func (uc *ledgerUseCase) withSKULock(ctx context.Context, skuID string, fn func() error) error {
	lockKey := fmt.Sprintf("lock:stock:%s", skuID)
	lockToken := uuid.New().String()

	acquired := false
	for i := 0; i < lockRetries; i++ {
		ok, err := uc.locker.AcquireLock(ctx, lockKey, lockToken, lockTTL)
		if err != nil {
			uc.logger.Error("failed to acquire stock lock", zap.String("sku_id", skuID), zap.Error(err))
		}
		if ok {
			acquired = true
			break
		}
		time.Sleep(lockRetryDelay)
	}
	if !acquired {
		return apperr.Newf(apperr.CodeConflict, "stock for sku %s is busy, try again", skuID)
	}
	defer uc.locker.ReleaseLock(ctx, lockKey, lockToken)

	return fn()
}

func (uc *ledgerUseCase) AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.InventoryAggregate, error) {
	if input.Delta == 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "adjustment delta must be non-zero")
	}

	txType := input.TransactionType
	if txType == "" {
		txType = model.TxAdminAdjustment
	}

	var result *model.InventoryAggregate
	err := uc.withSKULock(ctx, input.SKUID, func() error {
		return uc.txm.WithinTx(ctx, func(ctx context.Context) error {
			now := time.Now()

			if input.LotID != nil {
				lot, err := uc.repo.GetLotByID(ctx, *input.LotID)
				if err != nil {
					return err
				}
				if lot == nil {
					return apperr.Newf(apperr.CodeNotFound, "lot %s not found", *input.LotID)
				}
				if lot.SKUID != input.SKUID {
					return apperr.Newf(apperr.CodeInvalidInput, "lot %s does not belong to sku %s", lot.ID, input.SKUID)
				}
				if lot.CurrentQuantity+input.Delta < 0 {
					return apperr.Newf(apperr.CodeInsufficientStock,
						"lot %s holds %d units, cannot apply %d", lot.LotNumber, lot.CurrentQuantity, input.Delta)
				}
				lot.CurrentQuantity += input.Delta
				if input.Delta > 0 {
					lot.InitialQuantity += input.Delta
				} else {
					lot.DamagedQuantity += -input.Delta
				}
				lot.UpdatedAt = now
				if err := uc.repo.UpdateLotQuantities(ctx, lot); err != nil {
					return err
				}
			}

			agg, err := uc.loadOrInitAggregate(ctx, input.SKUID, now)
			if err != nil {
				return err
			}

			previous := agg.TotalAvailableStock
			next := previous + input.Delta
			if next < 0 {
				return apperr.Newf(apperr.CodeInsufficientStock,
					"sku %s has %d units available, cannot apply %d", input.SKUID, previous, input.Delta)
			}

			agg.TotalAvailableStock = next
			agg.UpdatedAt = now
			if input.Delta > 0 {
				agg.LastRestockedAt = &now
			}
			if err := uc.repo.UpsertAggregate(ctx, agg); err != nil {
				return err
			}

			movement := uc.newMovement(input.SKUID, input.LotID, txType, input.Delta, previous, next, input, now)
			if err := uc.repo.InsertMovement(ctx, movement); err != nil {
				return err
			}

			result = agg
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("stock adjusted",
		zap.String("sku_id", input.SKUID),
		zap.Int64("delta", input.Delta),
		zap.String("transaction_type", string(txType)),
	)
	return result, nil
}

func (uc *ledgerUseCase) ReserveStock(ctx context.Context, input *dto.ReserveStockInput) (*model.InventoryAggregate, error) {
	if input.Quantity <= 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "reserve quantity must be positive")
	}

	var result *model.InventoryAggregate
	err := uc.withSKULock(ctx, input.SKUID, func() error {
		return uc.txm.WithinTx(ctx, func(ctx context.Context) error {
			lots, err := uc.repo.ListAllocatableLots(ctx, input.SKUID)
			if err != nil {
				return err
			}

			// FIFO: consume the oldest-manufactured lots first. The plan is
			// computed and applied inside this one transaction.
			remaining := input.Quantity
			now := time.Now()
			for i := range lots {
				if remaining == 0 {
					break
				}
				lot := &lots[i]
				take := lot.CurrentQuantity
				if take > remaining {
					take = remaining
				}
				if take == 0 {
					continue
				}
				lot.CurrentQuantity -= take
				lot.ReservedQuantity += take
				lot.UpdatedAt = now
				if err := uc.repo.UpdateLotQuantities(ctx, lot); err != nil {
					return err
				}
				remaining -= take
			}
			if remaining > 0 {
				return apperr.Newf(apperr.CodeInsufficientStock,
					"sku %s has insufficient lot stock to reserve %d units", input.SKUID, input.Quantity)
			}

			agg, err := uc.repo.ReserveAggregate(ctx, input.SKUID, input.Quantity)
			if err != nil {
				return err
			}
			if agg == nil {
				return apperr.Newf(apperr.CodeInsufficientStock,
					"sku %s has insufficient available stock to reserve %d units", input.SKUID, input.Quantity)
			}

			result = agg
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *ledgerUseCase) ReleaseStock(ctx context.Context, skuID string, quantity int64) (*model.InventoryAggregate, error) {
	if quantity <= 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "release quantity must be positive")
	}

	var result *model.InventoryAggregate
	err := uc.withSKULock(ctx, skuID, func() error {
		return uc.txm.WithinTx(ctx, func(ctx context.Context) error {
			lots, err := uc.repo.ListReservedLots(ctx, skuID)
			if err != nil {
				return err
			}

			// Release newest reservations first so the oldest stock stays
			// committed to its hold.
			remaining := quantity
			now := time.Now()
			for i := len(lots) - 1; i >= 0 && remaining > 0; i-- {
				lot := &lots[i]
				give := lot.ReservedQuantity
				if give > remaining {
					give = remaining
				}
				if give == 0 {
					continue
				}
				lot.ReservedQuantity -= give
				lot.CurrentQuantity += give
				lot.UpdatedAt = now
				if err := uc.repo.UpdateLotQuantities(ctx, lot); err != nil {
					return err
				}
				remaining -= give
			}
			if remaining > 0 {
				return apperr.Newf(apperr.CodeInsufficientStock,
					"sku %s has fewer than %d units reserved", skuID, quantity)
			}

			agg, err := uc.repo.ReleaseAggregate(ctx, skuID, quantity)
			if err != nil {
				return err
			}
			if agg == nil {
				return apperr.Newf(apperr.CodeInsufficientStock,
					"sku %s has fewer than %d units reserved", skuID, quantity)
			}

			result = agg
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *ledgerUseCase) ConsumeReservation(ctx context.Context, skuID string, quantity int64) (*model.InventoryAggregate, error) {
	if quantity <= 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "consume quantity must be positive")
	}

	var result *model.InventoryAggregate
	err := uc.withSKULock(ctx, skuID, func() error {
		return uc.txm.WithinTx(ctx, func(ctx context.Context) error {
			lots, err := uc.repo.ListReservedLots(ctx, skuID)
			if err != nil {
				return err
			}

			// Settle the oldest holds first, mirroring the FIFO order the
			// reservation was allocated in.
			remaining := quantity
			now := time.Now()
			for i := range lots {
				if remaining == 0 {
					break
				}
				lot := &lots[i]
				take := lot.ReservedQuantity
				if take > remaining {
					take = remaining
				}
				if take == 0 {
					continue
				}
				lot.ReservedQuantity -= take
				lot.SoldQuantity += take
				lot.UpdatedAt = now
				if err := uc.repo.UpdateLotQuantities(ctx, lot); err != nil {
					return err
				}
				remaining -= take
			}
			if remaining > 0 {
				return apperr.Newf(apperr.CodeInsufficientStock,
					"sku %s has fewer than %d units reserved", skuID, quantity)
			}

			agg, err := uc.repo.ConsumeAggregate(ctx, skuID, quantity)
			if err != nil {
				return err
			}
			if agg == nil {
				return apperr.Newf(apperr.CodeInsufficientStock,
					"sku %s has fewer than %d units reserved", skuID, quantity)
			}

			result = agg
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("reservation consumed",
		zap.String("sku_id", skuID),
		zap.Int64("quantity", quantity),
	)
	return result, nil
}

func (uc *ledgerUseCase) AllocateFromLot(ctx context.Context, lotID string, quantity int64, actorID string) (*model.Lot, error) {
	if quantity <= 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "allocation quantity must be positive")
	}

	var result *model.Lot
	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		lot, err := uc.repo.GetLotByID(ctx, lotID)
		if err != nil {
			return err
		}
		if lot == nil {
			return apperr.Newf(apperr.CodeNotFound, "lot %s not found", lotID)
		}
		if quantity > lot.CurrentQuantity {
			return apperr.Newf(apperr.CodeInsufficientStock,
				"lot %s holds %d units, cannot allocate %d", lot.LotNumber, lot.CurrentQuantity, quantity)
		}

		lot.CurrentQuantity -= quantity
		lot.ReservedQuantity += quantity
		lot.UpdatedAt = time.Now()
		if err := uc.repo.UpdateLotQuantities(ctx, lot); err != nil {
			return err
		}

		agg, err := uc.repo.ReserveAggregate(ctx, lot.SKUID, quantity)
		if err != nil {
			return err
		}
		if agg == nil {
			return apperr.Newf(apperr.CodeInsufficientStock,
				"sku %s aggregate has insufficient available stock for allocation", lot.SKUID)
		}

		result = lot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *ledgerUseCase) AdjustLotStock(ctx context.Context, input *dto.AdjustLotStockInput) (*model.Lot, error) {
	if input.Delta == 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "adjustment delta must be non-zero")
	}

	var result *model.Lot
	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		lot, err := uc.repo.GetLotByID(ctx, input.LotID)
		if err != nil {
			return err
		}
		if lot == nil {
			return apperr.Newf(apperr.CodeNotFound, "lot %s not found", input.LotID)
		}

		// Clamp so the correction never drives the lot negative. Negative
		// corrections are booked as damage write-offs, positive ones as
		// found stock, keeping the lot quantity equation balanced.
		effective := input.Delta
		if lot.CurrentQuantity+effective < 0 {
			effective = -lot.CurrentQuantity
		}
		if effective == 0 {
			result = lot
			return nil
		}

		now := time.Now()
		lot.CurrentQuantity += effective
		if effective > 0 {
			lot.InitialQuantity += effective
		} else {
			lot.DamagedQuantity += -effective
		}
		lot.UpdatedAt = now
		if err := uc.repo.UpdateLotQuantities(ctx, lot); err != nil {
			return err
		}

		adj := &model.LotAdjustment{
			ID:        uuid.New().String(),
			LotID:     lot.ID,
			Delta:     effective,
			Reason:    input.Reason,
			CreatedAt: now,
		}
		if input.ActorID != "" {
			adj.AdjustedBy = &input.ActorID
		}
		if err := uc.repo.AppendLotAdjustment(ctx, adj); err != nil {
			return err
		}

		agg, err := uc.loadOrInitAggregate(ctx, lot.SKUID, now)
		if err != nil {
			return err
		}
		previous := agg.TotalAvailableStock
		agg.TotalAvailableStock += effective
		agg.UpdatedAt = now
		if effective > 0 {
			agg.LastRestockedAt = &now
		}
		if err := uc.repo.UpsertAggregate(ctx, agg); err != nil {
			return err
		}

		lotID := lot.ID
		refType := model.RefLot
		movement := &model.StockMovement{
			ID:               uuid.New().String(),
			SKUID:            lot.SKUID,
			LotID:            &lotID,
			TransactionType:  model.TxAdminAdjustment,
			ChangeQuantity:   effective,
			PreviousQuantity: previous,
			NewQuantity:      agg.TotalAvailableStock,
			ReferenceID:      &lotID,
			ReferenceType:    &refType,
			Reason:           input.Reason,
			CreatedAt:        now,
		}
		if input.ActorID != "" {
			movement.CreatedBy = &input.ActorID
		}
		if err := uc.repo.InsertMovement(ctx, movement); err != nil {
			return err
		}

		result = lot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *ledgerUseCase) UpdateThreshold(ctx context.Context, input *dto.UpdateThresholdInput) (*model.InventoryAggregate, error) {
	var result *model.InventoryAggregate
	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		agg, err := uc.loadOrInitAggregate(ctx, input.SKUID, time.Now())
		if err != nil {
			return err
		}
		agg.LowStockThreshold = input.LowStockThreshold
		agg.ReorderPoint = input.ReorderPoint
		agg.ReorderQuantity = input.ReorderQuantity
		agg.UpdatedAt = time.Now()
		if err := uc.repo.UpsertAggregate(ctx, agg); err != nil {
			return err
		}
		result = agg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *ledgerUseCase) GetLowStockItems(ctx context.Context) ([]model.InventoryAggregate, error) {
	return uc.repo.ListLowStock(ctx)
}

func (uc *ledgerUseCase) GetStockValue(ctx context.Context) (*dto.StockValue, error) {
	return uc.repo.StockValue(ctx)
}

func (uc *ledgerUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}

func (uc *ledgerUseCase) loadOrInitAggregate(ctx context.Context, skuID string, now time.Time) (*model.InventoryAggregate, error) {
	agg, err := uc.repo.GetAggregateBySKU(ctx, skuID)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		agg = &model.InventoryAggregate{
			ID:        uuid.New().String(),
			SKUID:     skuID,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return agg, nil
}

func (uc *ledgerUseCase) newMovement(skuID string, lotID *string, txType model.TransactionType, delta, previous, next int64, input *dto.AdjustStockInput, now time.Time) *model.StockMovement {
	m := &model.StockMovement{
		ID:               uuid.New().String(),
		SKUID:            skuID,
		LotID:            lotID,
		TransactionType:  txType,
		ChangeQuantity:   delta,
		PreviousQuantity: previous,
		NewQuantity:      next,
		Reason:           input.Reason,
		CreatedAt:        now,
	}
	if input.ReferenceID != "" {
		refID := input.ReferenceID
		m.ReferenceID = &refID
	}
	if input.ReferenceType != "" {
		refType := input.ReferenceType
		m.ReferenceType = &refType
	}
	if input.ActorID != "" {
		actor := input.ActorID
		m.CreatedBy = &actor
	}
	return m
}
