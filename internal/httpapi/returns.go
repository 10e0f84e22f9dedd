package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/stokly/fulfillment-service/internal/model"
	"github.com/stokly/fulfillment-service/internal/returns/dto"
)

type requestReturnRequest struct {
	OrderID       string              `json:"order_id"`
	UserID        string              `json:"user_id"`
	Items         []requestReturnItem `json:"items"`
	PickupAddress model.Address       `json:"pickup_address"`
}

type requestReturnItem struct {
	SKUID       string   `json:"sku_id"`
	Quantity    int64    `json:"quantity"`
	ReasonCode  string   `json:"reason_code"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

func (a *API) handleReturns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		page, pageSize := pageParams(r)
		filters := &dto.ReturnFilters{
			UserID:   strings.TrimSpace(r.URL.Query().Get("user_id")),
			OrderID:  strings.TrimSpace(r.URL.Query().Get("order_id")),
			Status:   model.ReturnStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
			Page:     page,
			PageSize: pageSize,
		}
		rets, total, err := a.returns.ListReturns(r.Context(), filters)
		if err != nil {
			a.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"returns":   rets,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		})
	case http.MethodPost:
		var req requestReturnRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		input := &dto.RequestReturnInput{
			OrderID:       req.OrderID,
			UserID:        req.UserID,
			PickupAddress: req.PickupAddress,
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, dto.RequestReturnItem{
				SKUID:       item.SKUID,
				Quantity:    item.Quantity,
				ReasonCode:  item.ReasonCode,
				Description: item.Description,
				Images:      item.Images,
			})
		}

		created, err := a.returns.RequestReturn(r.Context(), input)
		if err != nil {
			a.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"return": created})
	default:
		writeMethodNotAllowed(w)
	}
}

type updateReturnStatusRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"admin_notes"`
	ActorID    string `json:"actor_id"`
}

// handleReturnActions routes /api/v1/returns/{id} and /api/v1/returns/{id}/status.
func (a *API) handleReturnActions(w http.ResponseWriter, r *http.Request) {
	tail := pathTail(r, "/api/v1/returns/")
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("return id required"))
		return
	}

	if strings.HasSuffix(tail, "/status") {
		if r.Method != http.MethodPatch {
			writeMethodNotAllowed(w)
			return
		}
		returnID := strings.Trim(strings.TrimSuffix(tail, "/status"), "/")

		var req updateReturnStatusRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		updated, err := a.returns.UpdateReturnStatus(r.Context(), &dto.UpdateReturnStatusInput{
			ReturnID:   returnID,
			Status:     model.ReturnStatus(req.Status),
			AdminNotes: req.AdminNotes,
			ActorID:    req.ActorID,
		})
		if err != nil {
			a.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"return": updated})
		return
	}

	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	found, err := a.returns.GetReturn(r.Context(), tail)
	if err != nil {
		a.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"return": found})
}
