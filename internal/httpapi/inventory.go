package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/stokly/fulfillment-service/internal/inventory/dto"
	"github.com/stokly/fulfillment-service/internal/model"
)

type adjustStockRequest struct {
	SKUID   string `json:"sku_id"`
	LotID   string `json:"lot_id"`
	Delta   int64  `json:"delta"`
	Reason  string `json:"reason"`
	ActorID string `json:"actor_id"`
}

func (a *API) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req adjustStockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	input := &dto.AdjustStockInput{
		SKUID:           req.SKUID,
		Delta:           req.Delta,
		Reason:          req.Reason,
		TransactionType: model.TxAdminAdjustment,
		ReferenceID:     req.ActorID,
		ReferenceType:   model.RefUser,
		ActorID:         req.ActorID,
	}
	if strings.TrimSpace(req.LotID) != "" {
		input.LotID = &req.LotID
	}

	agg, err := a.inventory.AdjustStock(r.Context(), input)
	if err != nil {
		a.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inventory": agg})
}

type reserveStockRequest struct {
	SKUID    string `json:"sku_id"`
	Quantity int64  `json:"quantity"`
	ActorID  string `json:"actor_id"`
}

func (a *API) handleReserveStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req reserveStockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	agg, err := a.inventory.ReserveStock(r.Context(), &dto.ReserveStockInput{
		SKUID:    req.SKUID,
		Quantity: req.Quantity,
		ActorID:  req.ActorID,
	})
	if err != nil {
		a.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inventory": agg})
}

type releaseStockRequest struct {
	SKUID    string `json:"sku_id"`
	Quantity int64  `json:"quantity"`
}

func (a *API) handleReleaseStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req releaseStockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	agg, err := a.inventory.ReleaseStock(r.Context(), req.SKUID, req.Quantity)
	if err != nil {
		a.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inventory": agg})
}

type consumeStockRequest struct {
	SKUID    string `json:"sku_id"`
	Quantity int64  `json:"quantity"`
}

func (a *API) handleConsumeStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req consumeStockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	agg, err := a.inventory.ConsumeReservation(r.Context(), req.SKUID, req.Quantity)
	if err != nil {
		a.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inventory": agg})
}

func (a *API) handleLowStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	items, err := a.inventory.GetLowStockItems(r.Context())
	if err != nil {
		a.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) handleStockValue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	value, err := a.inventory.GetStockValue(r.Context())
	if err != nil {
		a.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, value)
}

func (a *API) handleMovements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	page, pageSize := pageParams(r)
	filters := &dto.MovementFilters{
		SKUID:           strings.TrimSpace(r.URL.Query().Get("sku_id")),
		LotID:           strings.TrimSpace(r.URL.Query().Get("lot_id")),
		TransactionType: model.TransactionType(strings.TrimSpace(r.URL.Query().Get("transaction_type"))),
		Page:            page,
		PageSize:        pageSize,
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("start_date")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("start_date must be RFC 3339"))
			return
		}
		filters.StartDate = &parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("end_date")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("end_date must be RFC 3339"))
			return
		}
		filters.EndDate = &parsed
	}

	movements, total, err := a.inventory.ListMovements(r.Context(), filters)
	if err != nil {
		a.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"movements": movements,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

type updateThresholdRequest struct {
	LowStockThreshold int64 `json:"low_stock_threshold"`
	ReorderPoint      int64 `json:"reorder_point"`
	ReorderQuantity   int64 `json:"reorder_quantity"`
}

// handleInventoryActions routes /api/v1/inventory/{skuID} and
// /api/v1/inventory/{skuID}/threshold.
func (a *API) handleInventoryActions(w http.ResponseWriter, r *http.Request) {
	tail := pathTail(r, "/api/v1/inventory/")
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("sku id required"))
		return
	}

	if strings.HasSuffix(tail, "/threshold") {
		if r.Method != http.MethodPut {
			writeMethodNotAllowed(w)
			return
		}
		skuID := strings.Trim(strings.TrimSuffix(tail, "/threshold"), "/")
		if skuID == "" {
			writeError(w, http.StatusBadRequest, errors.New("sku id required"))
			return
		}

		var req updateThresholdRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		agg, err := a.inventory.UpdateThreshold(r.Context(), &dto.UpdateThresholdInput{
			SKUID:             skuID,
			LowStockThreshold: req.LowStockThreshold,
			ReorderPoint:      req.ReorderPoint,
			ReorderQuantity:   req.ReorderQuantity,
		})
		if err != nil {
			a.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"inventory": agg})
		return
	}

	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	agg, err := a.inventory.GetSKUInventory(r.Context(), tail)
	if err != nil {
		a.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inventory": agg})
}
