package dto

import "github.com/stokly/fulfillment-service/internal/model"

type CreateOrderInput struct {
	UserID          string
	Items           []CreateOrderItem
	ShippingAddress model.Address
	BillingAddress  model.Address
	PaymentMethod   string
	CouponCode      string
	TaxAmount       float64
	ShippingCost    float64
}

type CreateOrderItem struct {
	SKUID    string
	Quantity int64
}

type UpdateOrderStatusInput struct {
	OrderID string
	Status  model.OrderStatus
	Message string
	ActorID string
}

type OrderFilters struct {
	UserID   string
	Status   model.OrderStatus
	Page     int
	PageSize int
}
