package dto

import (
	"time"

	"github.com/stokly/fulfillment-service/internal/model"
)

type StockValue struct {
	TotalValue float64 `db:"total_value" json:"total_value"`
	ItemCount  int64   `db:"item_count" json:"item_count"`
}

type MovementFilters struct {
	SKUID           string
	LotID           string
	TransactionType model.TransactionType
	StartDate       *time.Time
	EndDate         *time.Time
	Page            int
	PageSize        int
}
