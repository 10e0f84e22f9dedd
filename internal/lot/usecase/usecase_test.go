package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stokly/fulfillment-service/internal/apperr"
	invdto "github.com/stokly/fulfillment-service/internal/inventory/dto"
	invrepo "github.com/stokly/fulfillment-service/internal/inventory/repository"
	invuc "github.com/stokly/fulfillment-service/internal/inventory/usecase"
	"github.com/stokly/fulfillment-service/internal/lot"
	"github.com/stokly/fulfillment-service/internal/lot/dto"
	lotrepo "github.com/stokly/fulfillment-service/internal/lot/repository"
	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/pkg/cache"
	"github.com/stokly/fulfillment-service/pkg/logger"
	"github.com/stokly/fulfillment-service/pkg/postgres"
)

func newLotFixture(t *testing.T) (*invrepo.MemoryRepository, lot.UseCase) {
	t.Helper()
	log := logger.NewNop()
	inv := invrepo.NewMemoryRepository()
	ledger := invuc.NewLedgerUseCase(inv, postgres.NopTxManager{}, cache.NopLocker{}, log)
	uc := NewLotUseCase(lotrepo.NewMemoryRepository(inv), ledger, postgres.NopTxManager{}, log)
	return inv, uc
}

func intakeInput(lotNumber, skuID string, qty int64) *dto.CreateLotInput {
	return &dto.CreateLotInput{
		LotNumber:         lotNumber,
		SKUID:             skuID,
		Source:            model.LotSourceSupplier,
		ManufacturingDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:        time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC),
		CostPerUnit:       3.5,
		Quantity:          qty,
		QCStatus:          model.QCPassed,
		ActorID:           "admin-1",
	}
}

func TestCreateLotBooksIntake(t *testing.T) {
	inv, uc := newLotFixture(t)
	ctx := context.Background()

	created, err := uc.CreateLot(ctx, intakeInput("LOT-001", "sku-1", 10))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.CurrentQuantity != 10 || created.InitialQuantity != 10 {
		t.Fatalf("lot quantities wrong: %+v", created)
	}

	agg, err := inv.GetAggregateBySKU(ctx, "sku-1")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg == nil || agg.TotalAvailableStock != 10 {
		t.Fatalf("intake should raise the aggregate to 10, got %+v", agg)
	}

	movements := inv.Movements()
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}
	m := movements[0]
	if m.TransactionType != model.TxLotInward || m.ChangeQuantity != 10 {
		t.Fatalf("intake movement wrong: type=%s change=%d", m.TransactionType, m.ChangeQuantity)
	}
	if m.ReferenceID == nil || *m.ReferenceID != created.ID {
		t.Fatal("intake movement should reference the new lot")
	}
}

func TestCreateLotValidation(t *testing.T) {
	_, uc := newLotFixture(t)
	ctx := context.Background()

	_, err := uc.CreateLot(ctx, intakeInput("LOT-001", "sku-1", 0))
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Fatalf("zero quantity: expected INVALID_INPUT, got %v", err)
	}

	bad := intakeInput("LOT-002", "sku-1", 5)
	bad.ExpiryDate = bad.ManufacturingDate.AddDate(0, 0, -1)
	_, err = uc.CreateLot(ctx, bad)
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Fatalf("expiry before manufacture: expected INVALID_INPUT, got %v", err)
	}
}

func TestGetExpiringLots(t *testing.T) {
	_, uc := newLotFixture(t)
	ctx := context.Background()

	soon := intakeInput("LOT-SOON", "sku-1", 5)
	soon.ExpiryDate = time.Now().AddDate(0, 0, 10)
	if _, err := uc.CreateLot(ctx, soon); err != nil {
		t.Fatalf("create soon: %v", err)
	}
	later := intakeInput("LOT-LATER", "sku-1", 5)
	later.ExpiryDate = time.Now().AddDate(1, 0, 0)
	if _, err := uc.CreateLot(ctx, later); err != nil {
		t.Fatalf("create later: %v", err)
	}

	expiring, err := uc.GetExpiringLots(ctx, 30)
	if err != nil {
		t.Fatalf("expiring: %v", err)
	}
	if len(expiring) != 1 || expiring[0].LotNumber != "LOT-SOON" {
		t.Fatalf("expected only LOT-SOON within 30 days, got %+v", expiring)
	}

	if _, err := uc.GetExpiringLots(ctx, 0); !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Fatalf("zero window: expected INVALID_INPUT, got %v", err)
	}
}

func TestDeleteLotRequiresEmptyLot(t *testing.T) {
	inv, uc := newLotFixture(t)
	ledger := invuc.NewLedgerUseCase(inv, postgres.NopTxManager{}, cache.NopLocker{}, logger.NewNop())
	ctx := context.Background()

	created, err := uc.CreateLot(ctx, intakeInput("LOT-001", "sku-1", 4))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := uc.DeleteLot(ctx, created.ID); !apperr.IsCode(err, apperr.CodeConflict) {
		t.Fatalf("stocked lot: expected CONFLICT, got %v", err)
	}

	lotID := created.ID
	if _, err := ledger.AdjustStock(ctx, &invdto.AdjustStockInput{
		SKUID:  "sku-1",
		LotID:  &lotID,
		Delta:  -4,
		Reason: "write-off before retiring the lot",
	}); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if err := uc.DeleteLot(ctx, created.ID); err != nil {
		t.Fatalf("delete drained lot: %v", err)
	}
	if _, err := uc.GetLot(ctx, created.ID); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("deleted lot should read as NOT_FOUND, got %v", err)
	}
}

func TestGetLotNotFound(t *testing.T) {
	_, uc := newLotFixture(t)
	if _, err := uc.GetLot(context.Background(), "missing"); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
