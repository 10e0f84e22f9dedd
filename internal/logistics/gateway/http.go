package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stokly/fulfillment-service/internal/apperr"
	"github.com/stokly/fulfillment-service/internal/logistics"
	"github.com/stokly/fulfillment-service/internal/model"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPGateway talks to the carrier's REST API. Every failure is surfaced as
// DEPENDENCY_UNAVAILABLE so the dispatcher can retry without inspecting the
// transport error.
type HTTPGateway struct {
	cfg    *Config
	client *http.Client
}

func NewHTTPGateway(cfg *Config) *HTTPGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type createShipmentRequest struct {
	OrderNumber     string        `json:"order_number"`
	ShippingAddress model.Address `json:"shipping_address"`
	Items           []parcelItem  `json:"items"`
}

type parcelItem struct {
	SKUID    string `json:"sku_id"`
	Quantity int64  `json:"quantity"`
}

type createShipmentResponse struct {
	Carrier           string     `json:"carrier"`
	TrackingID        string     `json:"tracking_id"`
	LabelURL          string     `json:"label_url"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
}

func (g *HTTPGateway) CreateShipment(ctx context.Context, o *model.Order) (*logistics.Shipment, error) {
	payload := createShipmentRequest{
		OrderNumber:     o.OrderNumber,
		ShippingAddress: o.ShippingAddress,
	}
	for _, item := range o.Items {
		payload.Items = append(payload.Items, parcelItem{SKUID: item.SKUID, Quantity: item.Quantity})
	}

	var resp createShipmentResponse
	if err := g.do(ctx, http.MethodPost, "/shipments", payload, &resp); err != nil {
		return nil, err
	}
	return &logistics.Shipment{
		Carrier:           resp.Carrier,
		TrackingID:        resp.TrackingID,
		LabelURL:          resp.LabelURL,
		EstimatedDelivery: resp.EstimatedDelivery,
	}, nil
}

func (g *HTTPGateway) TrackShipment(ctx context.Context, trackingID string) ([]logistics.TrackingEvent, error) {
	var events []logistics.TrackingEvent
	path := fmt.Sprintf("/shipments/%s/events", trackingID)
	if err := g.do(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (g *HTTPGateway) CancelShipment(ctx context.Context, trackingID string) error {
	path := fmt.Sprintf("/shipments/%s/cancel", trackingID)
	return g.do(ctx, http.MethodPost, path, nil, nil)
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body *bytes.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return apperr.Wrap(apperr.CodeInternal, "encode carrier request", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.cfg.BaseURL+path, body)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "build carrier request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.CodeDependencyUnavailable, "carrier unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.Newf(apperr.CodeDependencyUnavailable, "carrier returned status %d for %s %s", resp.StatusCode, method, path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.CodeDependencyUnavailable, "decode carrier response", err)
	}
	return nil
}
