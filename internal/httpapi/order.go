package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/internal/order/dto"
)

type createOrderRequest struct {
	UserID          string            `json:"user_id"`
	Items           []createOrderItem `json:"items"`
	ShippingAddress model.Address     `json:"shipping_address"`
	BillingAddress  model.Address     `json:"billing_address"`
	PaymentMethod   string            `json:"payment_method"`
	CouponCode      string            `json:"coupon_code"`
	TaxAmount       float64           `json:"tax_amount"`
	ShippingCost    float64           `json:"shipping_cost"`
}

type createOrderItem struct {
	SKUID    string `json:"sku_id"`
	Quantity int64  `json:"quantity"`
}

func (a *API) handleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		page, pageSize := pageParams(r)
		filters := &dto.OrderFilters{
			UserID:   strings.TrimSpace(r.URL.Query().Get("user_id")),
			Status:   model.OrderStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
			Page:     page,
			PageSize: pageSize,
		}
		orders, total, err := a.orders.ListOrders(r.Context(), filters)
		if err != nil {
			a.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"orders":    orders,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		})
	case http.MethodPost:
		var req createOrderRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		input := &dto.CreateOrderInput{
			UserID:          req.UserID,
			ShippingAddress: req.ShippingAddress,
			BillingAddress:  req.BillingAddress,
			PaymentMethod:   req.PaymentMethod,
			CouponCode:      req.CouponCode,
			TaxAmount:       req.TaxAmount,
			ShippingCost:    req.ShippingCost,
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, dto.CreateOrderItem{SKUID: item.SKUID, Quantity: item.Quantity})
		}

		created, err := a.orders.CreateOrder(r.Context(), input)
		if err != nil {
			a.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"order": created})
	default:
		writeMethodNotAllowed(w)
	}
}

type updateOrderStatusRequest struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	ActorID string `json:"actor_id"`
}

// handleOrderActions routes /api/v1/orders/{id} and /api/v1/orders/{id}/status.
func (a *API) handleOrderActions(w http.ResponseWriter, r *http.Request) {
	tail := pathTail(r, "/api/v1/orders/")
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("order id required"))
		return
	}

	if strings.HasSuffix(tail, "/status") {
		if r.Method != http.MethodPatch {
			writeMethodNotAllowed(w)
			return
		}
		orderID := strings.Trim(strings.TrimSuffix(tail, "/status"), "/")

		var req updateOrderStatusRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		updated, err := a.orders.UpdateOrderStatus(r.Context(), &dto.UpdateOrderStatusInput{
			OrderID: orderID,
			Status:  model.OrderStatus(req.Status),
			Message: req.Message,
			ActorID: req.ActorID,
		})
		if err != nil {
			a.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"order": updated})
		return
	}

	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	found, err := a.orders.GetOrder(r.Context(), tail)
	if err != nil {
		a.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": found})
}
