package dto

import (
	"time"

	"github.com/stokly/fulfillment-service/internal/model"
)

type CreateLotInput struct {
	LotNumber         string
	SKUID             string
	Source            model.LotSource
	SupplierID        *string
	ManufacturingDate time.Time
	ExpiryDate        time.Time
	CostPerUnit       float64
	Quantity          int64
	QCStatus          model.QCStatus
	Notes             string
	ActorID           string
}

type LotFilters struct {
	SKUID    string
	Source   model.LotSource
	QCStatus model.QCStatus
	Page     int
	PageSize int
}
