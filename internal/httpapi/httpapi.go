// Package httpapi exposes the back-office REST surface: stock ledger
// operations, lot intake, order fulfillment, and returns.
package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/stokly/fulfillment-service/internal/inventory"
	"github.com/stokly/fulfillment-service/internal/lot"
	"github.com/stokly/fulfillment-service/internal/order"
	"github.com/stokly/fulfillment-service/internal/returns"
	"github.com/stokly/fulfillment-service/internal/sku"
	"github.com/stokly/fulfillment-service/pkg/logger"
)

type API struct {
	inventory inventory.UseCase
	lots      lot.UseCase
	orders    order.UseCase
	returns   returns.UseCase
	skus      sku.Repository
	logger    logger.Logger
}

func New(inv inventory.UseCase, lots lot.UseCase, orders order.UseCase, rets returns.UseCase, skus sku.Repository, log logger.Logger) *API {
	return &API{
		inventory: inv,
		lots:      lots,
		orders:    orders,
		returns:   rets,
		skus:      skus,
		logger:    log,
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)

	mux.HandleFunc("/api/v1/inventory/adjust", a.handleAdjustStock)
	mux.HandleFunc("/api/v1/inventory/reserve", a.handleReserveStock)
	mux.HandleFunc("/api/v1/inventory/release", a.handleReleaseStock)
	mux.HandleFunc("/api/v1/inventory/consume", a.handleConsumeStock)
	mux.HandleFunc("/api/v1/inventory/low-stock", a.handleLowStock)
	mux.HandleFunc("/api/v1/inventory/value", a.handleStockValue)
	mux.HandleFunc("/api/v1/inventory/movements", a.handleMovements)
	mux.HandleFunc("/api/v1/inventory/", a.handleInventoryActions)

	mux.HandleFunc("/api/v1/skus/", a.handleSKUAvailability)

	mux.HandleFunc("/api/v1/lots", a.handleLots)
	mux.HandleFunc("/api/v1/lots/", a.handleLotActions)

	mux.HandleFunc("/api/v1/orders", a.handleOrders)
	mux.HandleFunc("/api/v1/orders/", a.handleOrderActions)

	mux.HandleFunc("/api/v1/returns", a.handleReturns)
	mux.HandleFunc("/api/v1/returns/", a.handleReturnActions)

	return a.withMiddleware(mux)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		a.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(startedAt)),
		)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}
