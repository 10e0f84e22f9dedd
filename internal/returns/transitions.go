// Package returns owns the post-delivery return workflow. It enforces the
// same strict transition discipline as the order state machine and feeds
// completed returns back into the stock ledger.
package returns

import "github.com/stokly/fulfillment-service/internal/model"

var transitions = map[model.ReturnStatus][]model.ReturnStatus{
	model.ReturnPending:   {model.ReturnApproved, model.ReturnRejected, model.ReturnCancelled},
	model.ReturnApproved:  {model.ReturnPickedUp, model.ReturnCancelled},
	model.ReturnPickedUp:  {model.ReturnReceived},
	model.ReturnReceived:  {model.ReturnCompleted, model.ReturnRejected},
	model.ReturnCompleted: {},
	model.ReturnRejected:  {},
	model.ReturnCancelled: {},
}

// CanTransition reports whether to is reachable from from; self-transitions
// are permitted as no-op timeline appends.
func CanTransition(from, to model.ReturnStatus) bool {
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

func IsTerminal(s model.ReturnStatus) bool {
	return len(transitions[s]) == 0
}
