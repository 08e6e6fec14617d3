package sales

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shoplane/shoplane-backend/pkg/config"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
)

// OrderLine is one finalized cart line submitted to the sales service.
type OrderLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Order is the immutable payload a checkout submits. Amounts are the engine's
// computed totals; the sales service records them as-is.
type Order struct {
	CartID         string          `json:"cart_id"`
	StoreID        string          `json:"store_id"`
	CustomerID     string          `json:"customer_id,omitempty"`
	Currency       string          `json:"currency"`
	Lines          []OrderLine     `json:"lines"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  string          `json:"payment_method"`
	Notes          string          `json:"notes,omitempty"`
}

// Client calls the sales service over JSON/HTTP.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient builds a sales client with its own request timeout.
func NewClient(cfg config.SalesConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("sales base url is required")
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: baseURL,
	}, nil
}

type createSaleResponse struct {
	ID string `json:"id"`
}

type rejectionResponse struct {
	Reason string `json:"reason"`
}

// CreateSale submits the order and returns the sale id only on a parsed
// success response. Any other outcome is an error and the caller must treat
// the sale as not created.
func (c *Client) CreateSale(ctx context.Context, order Order) (string, error) {
	if len(order.Lines) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order has no lines")
	}

	body, err := json.Marshal(order)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode sale payload")
	}

	url := c.baseURL + "/api/v1/sales"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build sales request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "sales unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		var payload createSaleResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "decode sales response")
		}
		if payload.ID == "" {
			return "", pkgerrors.New(pkgerrors.CodeUpstreamUnavailable, "sales response missing sale id")
		}
		return payload.ID, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		reason := readRejection(resp.Body)
		return "", pkgerrors.New(pkgerrors.CodeConflict, "sale rejected").
			WithDetails(map[string]string{"reason": reason})
	default:
		return "", pkgerrors.New(pkgerrors.CodeUpstreamUnavailable,
			fmt.Sprintf("sales returned status %d", resp.StatusCode))
	}
}

func readRejection(body io.Reader) string {
	var payload rejectionResponse
	if err := json.NewDecoder(body).Decode(&payload); err != nil || payload.Reason == "" {
		return "unspecified"
	}
	return payload.Reason
}
