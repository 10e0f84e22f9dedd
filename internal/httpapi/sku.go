package httpapi

import (
	"errors"
	"net/http"

	"github.com/stokly/fulfillment-service/internal/apperr"
	"github.com/stokly/fulfillment-service/internal/model"
)

// handleSKUAvailability serves /api/v1/skus/{id}: the catalog SKU together
// with its live stock counts, derived from the inventory aggregate.
func (a *API) handleSKUAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	skuID := pathTail(r, "/api/v1/skus/")
	if skuID == "" {
		writeError(w, http.StatusBadRequest, errors.New("sku id required"))
		return
	}

	s, err := a.skus.GetByID(r.Context(), skuID)
	if err != nil {
		a.writeAppError(w, err)
		return
	}
	if s == nil {
		a.writeAppError(w, apperr.Newf(apperr.CodeNotFound, "sku %s not found", skuID))
		return
	}
	agg, err := a.inventory.GetSKUInventory(r.Context(), skuID)
	if err != nil {
		a.writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.SKUAvailability{
		SKU:            *s,
		AvailableStock: agg.TotalAvailableStock,
		ReservedStock:  agg.TotalReservedStock,
	})
}
