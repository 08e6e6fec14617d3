package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shoplane/shoplane-backend/pkg/config"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
)

// Client calls the stock service over JSON/HTTP.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient builds an inventory client with its own request timeout.
func NewClient(cfg config.InventoryConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("inventory base url is required")
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: baseURL,
	}, nil
}

type availabilityResponse struct {
	Available int `json:"available"`
}

// GetAvailable returns the quantity on hand for a (store, product) pair.
// An unknown pair reads as zero availability, not an error.
func (c *Client) GetAvailable(ctx context.Context, storeID, productID string) (int, error) {
	if strings.TrimSpace(storeID) == "" || strings.TrimSpace(productID) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "store id and product id are required")
	}

	url := fmt.Sprintf("%s/api/v1/stores/%s/products/%s/availability", c.baseURL, storeID, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build inventory request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "inventory unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, nil
	case resp.StatusCode != http.StatusOK:
		return 0, pkgerrors.New(pkgerrors.CodeUpstreamUnavailable,
			fmt.Sprintf("inventory returned status %d", resp.StatusCode))
	}

	var payload availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "decode inventory response")
	}
	if payload.Available < 0 {
		return 0, nil
	}
	return payload.Available, nil
}
