package returns

import (
	"context"

	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/internal/returns/dto"
)

type UseCase interface {
	// RequestReturn files a return for a delivered order.
	RequestReturn(ctx context.Context, input *dto.RequestReturnInput) (*model.Return, error)
	GetReturn(ctx context.Context, id string) (*model.Return, error)
	ListReturns(ctx context.Context, filters *dto.ReturnFilters) ([]model.Return, int, error)
	// UpdateReturnStatus moves the return through its state machine. The
	// first transition into COMPLETED restocks every line item and marks
	// the order RETURNED, all in one transaction; repeating the call is a
	// no-op for inventory.
	UpdateReturnStatus(ctx context.Context, input *dto.UpdateReturnStatusInput) (*model.Return, error)
}

type Repository interface {
	Create(ctx context.Context, ret *model.Return) error
	GetByID(ctx context.Context, id string) (*model.Return, error)
	List(ctx context.Context, filters *dto.ReturnFilters) ([]model.Return, int, error)
	UpdateStatus(ctx context.Context, returnID string, status model.ReturnStatus, adminNotes *string, entry *model.TimelineEntry) error
}
