package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shoplane/shoplane-backend/pkg/config"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
)

// Product is the read-only catalog view the cart engine needs: the current
// price, whether the product can still be sold, and display metadata.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	IsActive bool            `json:"is_active"`
	ImageURL string          `json:"image_url,omitempty"`
}

// Client calls the catalog service over JSON/HTTP.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient builds a catalog client with its own request timeout.
func NewClient(cfg config.CatalogConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("catalog base url is required")
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: baseURL,
	}, nil
}

// GetProduct fetches the current catalog state for a product id.
func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	url := fmt.Sprintf("%s/api/v1/products/%s", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build catalog request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "catalog unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]string{"product_id": productID})
	case resp.StatusCode != http.StatusOK:
		return nil, pkgerrors.New(pkgerrors.CodeUpstreamUnavailable,
			fmt.Sprintf("catalog returned status %d", resp.StatusCode))
	}

	var product Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "decode catalog response")
	}
	if product.ID == "" {
		product.ID = productID
	}
	return &product, nil
}
