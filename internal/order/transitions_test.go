package order

import (
	"testing"

	"github.com/stokly/fulfillment-service/internal/model"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to model.OrderStatus
		want     bool
	}{
		{model.OrderPending, model.OrderConfirmed, true},
		{model.OrderPending, model.OrderCancelled, true},
		{model.OrderPending, model.OrderShipped, false},
		{model.OrderPending, model.OrderDelivered, false},
		{model.OrderConfirmed, model.OrderProcessing, true},
		{model.OrderConfirmed, model.OrderDelivered, false},
		{model.OrderProcessing, model.OrderShipped, true},
		{model.OrderProcessing, model.OrderPending, false},
		{model.OrderShipped, model.OrderDelivered, true},
		{model.OrderShipped, model.OrderCancelled, true},
		{model.OrderDelivered, model.OrderReturned, true},
		{model.OrderDelivered, model.OrderCancelled, false},
		{model.OrderCancelled, model.OrderPending, false},
		{model.OrderReturned, model.OrderDelivered, false},
		// Self-transitions are always no-op legal.
		{model.OrderPending, model.OrderPending, true},
		{model.OrderCancelled, model.OrderCancelled, true},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []model.OrderStatus{model.OrderCancelled, model.OrderReturned} {
		if !IsTerminal(s) {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []model.OrderStatus{model.OrderPending, model.OrderConfirmed, model.OrderProcessing, model.OrderShipped, model.OrderDelivered} {
		if IsTerminal(s) {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
