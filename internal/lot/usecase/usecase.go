package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stokly/fulfillment-service/internal/apperr"
	"github.com/stokly/fulfillment-service/internal/inventory"
	invdto "github.com/stokly/fulfillment-service/internal/inventory/dto"
	"github.com/stokly/fulfillment-service/internal/lot"
	"github.com/stokly/fulfillment-service/internal/lot/dto"
	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/pkg/logger"
	"github.com/stokly/fulfillment-service/pkg/postgres"
	"go.uber.org/zap"
)

type lotUseCase struct {
	repo   lot.Repository
	ledger inventory.UseCase
	txm    postgres.TxManager
	logger logger.Logger
}

func NewLotUseCase(repo lot.Repository, ledger inventory.UseCase, txm postgres.TxManager, log logger.Logger) lot.UseCase {
	return &lotUseCase{
		repo:   repo,
		ledger: ledger,
		txm:    txm,
		logger: log,
	}
}

func (uc *lotUseCase) CreateLot(ctx context.Context, input *dto.CreateLotInput) (*model.Lot, error) {
	if input.Quantity <= 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "intake quantity must be positive")
	}
	if input.ExpiryDate.Before(input.ManufacturingDate) {
		return nil, apperr.New(apperr.CodeInvalidInput, "expiry date precedes manufacturing date")
	}

	now := time.Now()
	qcStatus := input.QCStatus
	if qcStatus == "" {
		qcStatus = model.QCPending
	}

	newLot := &model.Lot{
		BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		LotNumber:         input.LotNumber,
		SKUID:             input.SKUID,
		Source:            input.Source,
		SupplierID:        input.SupplierID,
		ManufacturingDate: input.ManufacturingDate,
		ExpiryDate:        input.ExpiryDate,
		CostPerUnit:       input.CostPerUnit,
		InitialQuantity:   input.Quantity,
		CurrentQuantity:   input.Quantity,
		QCStatus:          qcStatus,
	}
	if input.Notes != "" {
		notes := input.Notes
		newLot.Notes = &notes
	}

	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.Create(ctx, newLot); err != nil {
			if postgres.IsUniqueViolation(err) {
				return apperr.Newf(apperr.CodeConflict, "lot number %s already exists", input.LotNumber)
			}
			return err
		}

		// Aggregate increase and LOT_INWARD audit entry join this tx.
		_, err := uc.ledger.AdjustStock(ctx, &invdto.AdjustStockInput{
			SKUID:           input.SKUID,
			Delta:           input.Quantity,
			Reason:          "lot intake " + input.LotNumber,
			TransactionType: model.TxLotInward,
			ReferenceID:     newLot.ID,
			ReferenceType:   model.RefLot,
			ActorID:         input.ActorID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("lot created",
		zap.String("lot_number", newLot.LotNumber),
		zap.String("sku_id", newLot.SKUID),
		zap.Int64("quantity", input.Quantity),
	)
	return newLot, nil
}

func (uc *lotUseCase) GetLot(ctx context.Context, id string) (*model.Lot, error) {
	found, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, apperr.Newf(apperr.CodeNotFound, "lot %s not found", id)
	}
	adjustments, err := uc.repo.ListAdjustments(ctx, id)
	if err != nil {
		return nil, err
	}
	found.Adjustments = adjustments
	return found, nil
}

func (uc *lotUseCase) ListLots(ctx context.Context, filters *dto.LotFilters) ([]model.Lot, int, error) {
	return uc.repo.List(ctx, filters)
}

func (uc *lotUseCase) GetExpiringLots(ctx context.Context, withinDays int) ([]model.Lot, error) {
	if withinDays <= 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "expiry window must be positive")
	}
	cutoff := time.Now().AddDate(0, 0, withinDays)
	return uc.repo.ListExpiring(ctx, cutoff)
}

func (uc *lotUseCase) GetLotHistory(ctx context.Context, lotID string) ([]model.StockMovement, error) {
	found, err := uc.repo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, apperr.Newf(apperr.CodeNotFound, "lot %s not found", lotID)
	}
	movements, _, err := uc.ledger.ListMovements(ctx, &invdto.MovementFilters{LotID: lotID})
	return movements, err
}

func (uc *lotUseCase) DeleteLot(ctx context.Context, id string) error {
	found, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if found == nil {
		return apperr.Newf(apperr.CodeNotFound, "lot %s not found", id)
	}
	if found.CurrentQuantity > 0 || found.ReservedQuantity > 0 {
		return apperr.Newf(apperr.CodeConflict,
			"lot %s still holds stock (%d current, %d reserved)",
			found.LotNumber, found.CurrentQuantity, found.ReservedQuantity)
	}
	return uc.repo.SoftDelete(ctx, id)
}
