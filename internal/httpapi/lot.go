package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	invdto "github.com/stokly/fulfillment-service/internal/inventory/dto"
	"github.com/stokly/fulfillment-service/internal/lot/dto"
	"github.com/stokly/fulfillment-service/internal/model"
)

type createLotRequest struct {
	LotNumber         string  `json:"lot_number"`
	SKUID             string  `json:"sku_id"`
	Source            string  `json:"source"`
	SupplierID        *string `json:"supplier_id"`
	ManufacturingDate string  `json:"manufacturing_date"`
	ExpiryDate        string  `json:"expiry_date"`
	CostPerUnit       float64 `json:"cost_per_unit"`
	Quantity          int64   `json:"quantity"`
	QCStatus          string  `json:"qc_status"`
	Notes             string  `json:"notes"`
	ActorID           string  `json:"actor_id"`
}

func (a *API) handleLots(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		page, pageSize := pageParams(r)
		filters := &dto.LotFilters{
			SKUID:    strings.TrimSpace(r.URL.Query().Get("sku_id")),
			Source:   model.LotSource(strings.TrimSpace(r.URL.Query().Get("source"))),
			QCStatus: model.QCStatus(strings.TrimSpace(r.URL.Query().Get("qc_status"))),
			Page:     page,
			PageSize: pageSize,
		}
		lots, total, err := a.lots.ListLots(r.Context(), filters)
		if err != nil {
			a.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"lots":      lots,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		})
	case http.MethodPost:
		var req createLotRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		mfgDate, err := time.Parse(time.RFC3339, req.ManufacturingDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("manufacturing_date must be RFC 3339"))
			return
		}
		expDate, err := time.Parse(time.RFC3339, req.ExpiryDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("expiry_date must be RFC 3339"))
			return
		}

		created, err := a.lots.CreateLot(r.Context(), &dto.CreateLotInput{
			LotNumber:         req.LotNumber,
			SKUID:             req.SKUID,
			Source:            model.LotSource(req.Source),
			SupplierID:        req.SupplierID,
			ManufacturingDate: mfgDate,
			ExpiryDate:        expDate,
			CostPerUnit:       req.CostPerUnit,
			Quantity:          req.Quantity,
			QCStatus:          model.QCStatus(req.QCStatus),
			Notes:             req.Notes,
			ActorID:           req.ActorID,
		})
		if err != nil {
			a.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"lot": created})
	default:
		writeMethodNotAllowed(w)
	}
}

type allocateLotRequest struct {
	Quantity int64  `json:"quantity"`
	ActorID  string `json:"actor_id"`
}

type adjustLotRequest struct {
	Delta   int64  `json:"delta"`
	Reason  string `json:"reason"`
	ActorID string `json:"actor_id"`
}

// handleLotActions routes /api/v1/lots/expiring, /api/v1/lots/{id},
// /api/v1/lots/{id}/history, /api/v1/lots/{id}/allocate, and
// /api/v1/lots/{id}/adjust.
func (a *API) handleLotActions(w http.ResponseWriter, r *http.Request) {
	tail := pathTail(r, "/api/v1/lots/")
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("lot id required"))
		return
	}

	if tail == "expiring" {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		withinDays := queryInt(r, "within_days", 30)
		lots, err := a.lots.GetExpiringLots(r.Context(), withinDays)
		if err != nil {
			a.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"lots": lots})
		return
	}

	if strings.HasSuffix(tail, "/history") {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		lotID := strings.Trim(strings.TrimSuffix(tail, "/history"), "/")
		movements, err := a.lots.GetLotHistory(r.Context(), lotID)
		if err != nil {
			a.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"movements": movements})
		return
	}

	if strings.HasSuffix(tail, "/allocate") {
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		lotID := strings.Trim(strings.TrimSuffix(tail, "/allocate"), "/")

		var req allocateLotRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		updated, err := a.inventory.AllocateFromLot(r.Context(), lotID, req.Quantity, req.ActorID)
		if err != nil {
			a.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"lot": updated})
		return
	}

	if strings.HasSuffix(tail, "/adjust") {
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		lotID := strings.Trim(strings.TrimSuffix(tail, "/adjust"), "/")

		var req adjustLotRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		updated, err := a.inventory.AdjustLotStock(r.Context(), &invdto.AdjustLotStockInput{
			LotID:   lotID,
			Delta:   req.Delta,
			Reason:  req.Reason,
			ActorID: req.ActorID,
		})
		if err != nil {
			a.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"lot": updated})
		return
	}

	switch r.Method {
	case http.MethodGet:
		found, err := a.lots.GetLot(r.Context(), tail)
		if err != nil {
			a.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"lot": found})
	case http.MethodDelete:
		if err := a.lots.DeleteLot(r.Context(), tail); err != nil {
			a.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeMethodNotAllowed(w)
	}
}
