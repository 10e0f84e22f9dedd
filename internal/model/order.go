package model

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
	OrderReturned   OrderStatus = "RETURNED"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
	PaymentFailed   PaymentStatus = "FAILED"
)

// Order is a customer purchase. Status only moves through the fulfillment
// state machine; total_amount == sub_total + tax_amount + shipping_cost -
// discount_amount; every status change appends exactly one timeline entry.
type Order struct {
	BaseModel
	UserID            string          `db:"user_id" json:"user_id"`
	OrderNumber       string          `db:"order_number" json:"order_number"`
	Status            OrderStatus     `db:"status" json:"status"`
	PaymentMethod     string          `db:"payment_method" json:"payment_method"`
	PaymentStatus     PaymentStatus   `db:"payment_status" json:"payment_status"`
	CouponCode        *string         `db:"coupon_code" json:"coupon_code,omitempty"`
	SubTotal          float64         `db:"sub_total" json:"sub_total"`
	DiscountAmount    float64         `db:"discount_amount" json:"discount_amount"`
	TaxAmount         float64         `db:"tax_amount" json:"tax_amount"`
	ShippingCost      float64         `db:"shipping_cost" json:"shipping_cost"`
	TotalAmount       float64         `db:"total_amount" json:"total_amount"`
	ShippingAddress   Address         `db:"shipping_address" json:"shipping_address"`
	BillingAddress    Address         `db:"billing_address" json:"billing_address"`
	Carrier           *string         `db:"carrier" json:"carrier,omitempty"`
	TrackingID        *string         `db:"tracking_id" json:"tracking_id,omitempty"`
	EstimatedDelivery *time.Time      `db:"estimated_delivery" json:"estimated_delivery,omitempty"`
	LabelURL          *string         `db:"label_url" json:"label_url,omitempty"`
	Items             []OrderItem     `db:"-" json:"items"`
	Timeline          []TimelineEntry `db:"-" json:"timeline"`
}

type OrderItem struct {
	ID          string  `db:"id" json:"id"`
	OrderID     string  `db:"order_id" json:"order_id"`
	SKUID       string  `db:"sku_id" json:"sku_id"`
	ProductName string  `db:"product_name" json:"product_name"`
	Quantity    int64   `db:"quantity" json:"quantity"`
	UnitPrice   float64 `db:"unit_price" json:"unit_price"`
	LineTotal   float64 `db:"line_total" json:"line_total"`
}

// TimelineEntry records one status change on an order or return.
type TimelineEntry struct {
	ID        string    `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"-"`
	Status    string    `db:"status" json:"status"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
