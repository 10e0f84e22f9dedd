package model

import "time"

type LotSource string

const (
	LotSourceSelfManufactured LotSource = "SELF_MANUFACTURED"
	LotSourceSupplier         LotSource = "SUPPLIER"
)

type QCStatus string

const (
	QCPending QCStatus = "PENDING"
	QCPassed  QCStatus = "PASSED"
	QCFailed  QCStatus = "FAILED"
)

// Lot is one manufacturing or supply batch for one SKU. The quantity counters
// always satisfy current + reserved + sold + damaged == initial; sold and
// damaged never decrease. Lots are soft-deleted only.
type Lot struct {
	BaseModel
	LotNumber         string          `db:"lot_number" json:"lot_number"`
	SKUID             string          `db:"sku_id" json:"sku_id"`
	Source            LotSource       `db:"source" json:"source"`
	SupplierID        *string         `db:"supplier_id" json:"supplier_id,omitempty"`
	ManufacturingDate time.Time       `db:"manufacturing_date" json:"manufacturing_date"`
	ExpiryDate        time.Time       `db:"expiry_date" json:"expiry_date"`
	CostPerUnit       float64         `db:"cost_per_unit" json:"cost_per_unit"`
	InitialQuantity   int64           `db:"initial_quantity" json:"initial_quantity"`
	CurrentQuantity   int64           `db:"current_quantity" json:"current_quantity"`
	ReservedQuantity  int64           `db:"reserved_quantity" json:"reserved_quantity"`
	SoldQuantity      int64           `db:"sold_quantity" json:"sold_quantity"`
	DamagedQuantity   int64           `db:"damaged_quantity" json:"damaged_quantity"`
	QCStatus          QCStatus        `db:"qc_status" json:"qc_status"`
	Notes             *string         `db:"notes" json:"notes,omitempty"`
	Adjustments       []LotAdjustment `db:"-" json:"adjustments,omitempty"`
}

// LotAdjustment is the inline correction history kept on a lot, in addition
// to the ledger-level stock movement written for the same change.
type LotAdjustment struct {
	ID         string    `db:"id" json:"id"`
	LotID      string    `db:"lot_id" json:"lot_id"`
	Delta      int64     `db:"delta" json:"delta"`
	Reason     string    `db:"reason" json:"reason"`
	AdjustedBy *string   `db:"adjusted_by" json:"adjusted_by,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
