package dto

import "github.com/stokly/fulfillment-service/internal/model"

type RequestReturnInput struct {
	OrderID       string
	UserID        string
	Items         []RequestReturnItem
	PickupAddress model.Address
}

type RequestReturnItem struct {
	SKUID       string
	Quantity    int64
	ReasonCode  string
	Description string
	Images      []string
}

type UpdateReturnStatusInput struct {
	ReturnID   string
	Status     model.ReturnStatus
	AdminNotes string
	ActorID    string
}

type ReturnFilters struct {
	UserID   string
	OrderID  string
	Status   model.ReturnStatus
	Page     int
	PageSize int
}
