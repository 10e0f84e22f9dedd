// Package events defines the payloads published to the order events topic
// through the outbox.
package events

import (
	"encoding/json"
	"time"
)

const (
	TypeOrderCreated        = "ORDER_CREATED"
	TypeOrderStatusChanged  = "ORDER_STATUS_CHANGED"
	TypeReturnStatusChanged = "RETURN_STATUS_CHANGED"
	TypeShipmentRequested   = "SHIPMENT_REQUESTED"
	TypeShipmentCancel      = "SHIPMENT_CANCEL_REQUESTED"

	AggregateOrder  = "order"
	AggregateReturn = "return"
)

// Envelope is the wire frame every outbox row is published in.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

type OrderCreated struct {
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	UserID      string             `json:"user_id"`
	TotalAmount float64            `json:"total_amount"`
	Items       []OrderCreatedItem `json:"items"`
}

type OrderCreatedItem struct {
	SKUID    string `json:"sku_id"`
	Quantity int64  `json:"quantity"`
}

type OrderStatusChanged struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Previous    string `json:"previous"`
	Next        string `json:"next"`
	ChangedBy   string `json:"changed_by"`
}

type ReturnStatusChanged struct {
	ReturnID     string `json:"return_id"`
	ReturnNumber string `json:"return_number"`
	OrderID      string `json:"order_id"`
	Previous     string `json:"previous"`
	Next         string `json:"next"`
}

type ShipmentRequested struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

type ShipmentCancelRequested struct {
	OrderID    string `json:"order_id"`
	TrackingID string `json:"tracking_id"`
}
