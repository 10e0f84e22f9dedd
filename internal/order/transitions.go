// Package order owns the fulfillment lifecycle: creation, the status state
// machine, and the stock and logistics side effects keyed off transitions.
package order

import "github.com/stokly/fulfillment-service/internal/model"

// transitions is the only legal movement through the order lifecycle.
// CANCELLED and RETURNED are terminal; DELIVERED only moves on to RETURNED.
var transitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderPending:    {model.OrderConfirmed, model.OrderCancelled},
	model.OrderConfirmed:  {model.OrderProcessing, model.OrderCancelled},
	model.OrderProcessing: {model.OrderShipped, model.OrderCancelled},
	model.OrderShipped:    {model.OrderDelivered, model.OrderCancelled},
	model.OrderDelivered:  {model.OrderReturned},
	model.OrderCancelled:  {},
	model.OrderReturned:   {},
}

// CanTransition reports whether to is reachable from from. A self-transition
// is always permitted as a no-op timeline append.
func CanTransition(from, to model.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func NextStatuses(from model.OrderStatus) []model.OrderStatus {
	return transitions[from]
}

func IsTerminal(s model.OrderStatus) bool {
	return len(transitions[s]) == 0
}
