package model

// SKU is the catalog read side consumed by the core: unit price for order
// line snapshots and stock valuation. Stock quantities live exclusively on
// the InventoryAggregate; the SKU carries no duplicate counter.
type SKU struct {
	BaseModel
	Code      string   `db:"code" json:"code"`
	Name      string   `db:"name" json:"name"`
	Price     float64  `db:"price" json:"price"`
	CostPrice *float64 `db:"cost_price" json:"cost_price,omitempty"`
	IsActive  bool     `db:"is_active" json:"is_active"`
}

// SKUAvailability is the derived read-only view exposed to legacy consumers
// of the old SKU quantity field.
type SKUAvailability struct {
	SKU            SKU   `json:"sku"`
	AvailableStock int64 `json:"available_stock"`
	ReservedStock  int64 `json:"reserved_stock"`
}
