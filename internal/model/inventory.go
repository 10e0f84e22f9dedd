package model

import "time"

// InventoryAggregate is the single summarized stock record per SKU. It is
// derived from the SKU's lots and kept in sync by the ledger service within
// the same transaction as every lot mutation: total_available_stock equals
// the sum of current quantities and total_reserved_stock the sum of reserved
// quantities over the SKU's non-deleted lots.
type InventoryAggregate struct {
	ID                  string     `db:"id" json:"id"`
	SKUID               string     `db:"sku_id" json:"sku_id"`
	TotalAvailableStock int64      `db:"total_available_stock" json:"total_available_stock"`
	TotalReservedStock  int64      `db:"total_reserved_stock" json:"total_reserved_stock"`
	LowStockThreshold   int64      `db:"low_stock_threshold" json:"low_stock_threshold"`
	ReorderPoint        int64      `db:"reorder_point" json:"reorder_point"`
	ReorderQuantity     int64      `db:"reorder_quantity" json:"reorder_quantity"`
	LastRestockedAt     *time.Time `db:"last_restocked_at" json:"last_restocked_at"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt           *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

type TransactionType string

const (
	TxOrderFulfillment TransactionType = "ORDER_FULFILLMENT"
	TxOrderCancel      TransactionType = "ORDER_CANCEL"
	TxLotInward        TransactionType = "LOT_INWARD"
	TxAdminAdjustment  TransactionType = "ADMIN_ADJUSTMENT"
	TxReturnRestock    TransactionType = "RETURN_RESTOCK"
)

type ReferenceType string

const (
	RefOrder ReferenceType = "ORDER"
	RefLot   ReferenceType = "LOT"
	RefUser  ReferenceType = "USER"
)

// StockMovement is one immutable ledger entry. Rows are inserted in the same
// transaction as the quantity change they document and are never updated or
// deleted; new_quantity - previous_quantity always equals change_quantity.
type StockMovement struct {
	ID               string          `db:"id" json:"id"`
	SKUID            string          `db:"sku_id" json:"sku_id"`
	LotID            *string         `db:"lot_id" json:"lot_id,omitempty"`
	TransactionType  TransactionType `db:"transaction_type" json:"transaction_type"`
	ChangeQuantity   int64           `db:"change_quantity" json:"change_quantity"`
	PreviousQuantity int64           `db:"previous_quantity" json:"previous_quantity"`
	NewQuantity      int64           `db:"new_quantity" json:"new_quantity"`
	ReferenceID      *string         `db:"reference_id" json:"reference_id,omitempty"`
	ReferenceType    *ReferenceType  `db:"reference_type" json:"reference_type,omitempty"`
	Reason           string          `db:"reason" json:"reason"`
	CreatedBy        *string         `db:"created_by" json:"created_by,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}
