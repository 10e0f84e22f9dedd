package model

type ReturnStatus string

const (
	ReturnPending   ReturnStatus = "PENDING"
	ReturnApproved  ReturnStatus = "APPROVED"
	ReturnPickedUp  ReturnStatus = "PICKED_UP"
	ReturnReceived  ReturnStatus = "RECEIVED"
	ReturnCompleted ReturnStatus = "COMPLETED"
	ReturnRejected  ReturnStatus = "REJECTED"
	ReturnCancelled ReturnStatus = "CANCELLED"
)

type RefundStatus string

const (
	RefundPending   RefundStatus = "PENDING"
	RefundProcessed RefundStatus = "PROCESSED"
	RefundFailed    RefundStatus = "FAILED"
)

// Return is a post-delivery return request tied to one order. The restock
// side effect fires at most once, on the first transition into COMPLETED.
type Return struct {
	BaseModel
	OrderID             string          `db:"order_id" json:"order_id"`
	UserID              string          `db:"user_id" json:"user_id"`
	ReturnNumber        string          `db:"return_number" json:"return_number"`
	Status              ReturnStatus    `db:"status" json:"status"`
	TotalRefundAmount   float64         `db:"total_refund_amount" json:"total_refund_amount"`
	RefundStatus        RefundStatus    `db:"refund_status" json:"refund_status"`
	RefundTransactionID *string         `db:"refund_transaction_id" json:"refund_transaction_id,omitempty"`
	PickupAddress       Address         `db:"pickup_address" json:"pickup_address"`
	AdminNotes          *string         `db:"admin_notes" json:"admin_notes,omitempty"`
	Items               []ReturnItem    `db:"-" json:"items"`
	Timeline            []TimelineEntry `db:"-" json:"timeline"`
}

type ReturnItem struct {
	ID          string     `db:"id" json:"id"`
	ReturnID    string     `db:"return_id" json:"return_id"`
	SKUID       string     `db:"sku_id" json:"sku_id"`
	Quantity    int64      `db:"quantity" json:"quantity"`
	UnitPrice   float64    `db:"unit_price" json:"unit_price"`
	ReasonCode  string     `db:"reason_code" json:"reason_code"`
	Description string     `db:"description" json:"description"`
	Images      StringList `db:"images" json:"images"`
}
