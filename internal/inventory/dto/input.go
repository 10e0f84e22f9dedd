package dto

import "github.com/stokly/fulfillment-service/internal/model"

type AdjustStockInput struct {
	SKUID           string
	LotID           *string
	Delta           int64
	Reason          string
	TransactionType model.TransactionType
	ReferenceID     string
	ReferenceType   model.ReferenceType
	ActorID         string
}

type ReserveStockInput struct {
	SKUID    string
	Quantity int64
	ActorID  string
}

type AdjustLotStockInput struct {
	LotID   string
	Delta   int64
	Reason  string
	ActorID string
}

type UpdateThresholdInput struct {
	SKUID             string
	LowStockThreshold int64
	ReorderPoint      int64
	ReorderQuantity   int64
}
