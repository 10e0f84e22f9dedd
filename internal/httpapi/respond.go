package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/stokly/fulfillment-service/internal/apperr"
)

// statusFor maps application error codes to HTTP statuses. Anything without a
// code is treated as internal.
func statusFor(err error) int {
	switch apperr.CodeOf(err) {
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeInvalidInput:
		return http.StatusBadRequest
	case apperr.CodeConflict, apperr.CodeInsufficientStock, apperr.CodeInvalidTransition:
		return http.StatusConflict
	case apperr.CodeInvalidCoupon, apperr.CodeCouponExpired, apperr.CodeCouponUsageLimit,
		apperr.CodeCouponMinOrder, apperr.CodeCouponNotAllowed:
		return http.StatusUnprocessableEntity
	case apperr.CodeDependencyUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeAppError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	code := apperr.CodeOf(err)
	msg := err.Error()
	if status >= 500 {
		// Internal details stay in the logs, not the response body.
		a.logger.Error("request failed", zap.Error(err))
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
		"code":  code,
	})
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func pageParams(r *http.Request) (page, pageSize int) {
	page = queryInt(r, "page", 1)
	pageSize = queryInt(r, "page_size", 20)
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}

// pathTail strips prefix from the request path and trims slashes; empty when
// the path carries no id segment.
func pathTail(r *http.Request, prefix string) string {
	if !strings.HasPrefix(r.URL.Path, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"))
}
