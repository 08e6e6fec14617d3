package cart

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shoplane/shoplane-backend/pkg/enums"
)

// Cart is the working set of items a shopper assembles before purchase.
// Subtotal, TaxAmount and TotalAmount are derived and recomputed on every
// mutation; they are never written independently.
type Cart struct {
	ID         string           `json:"id"`
	CustomerID string           `json:"customer_id,omitempty"`
	StoreID    string           `json:"store_id"`
	Status     enums.CartStatus `json:"status"`
	Currency   enums.Currency   `json:"currency"`
	Items      []Item           `json:"items"`

	DiscountCode   string          `json:"discount_code,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	SaleID      string     `json:"sale_id,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Item is a single cart line. UnitPrice is captured from the catalog at
// add-time, in the cart's currency; identity is (ProductID,
// CustomizationSignature).
type Item struct {
	ProductID              string            `json:"product_id"`
	Name                   string            `json:"name,omitempty"`
	Quantity               int               `json:"quantity"`
	UnitPrice              decimal.Decimal   `json:"unit_price"`
	TotalPrice             decimal.Decimal   `json:"total_price"`
	Customization          map[string]string `json:"customization,omitempty"`
	CustomizationSignature string            `json:"customization_signature"`
	AddedAt                time.Time         `json:"added_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}

// NewCart builds an empty active cart with a fresh id and TTL-derived expiry.
func NewCart(customerID, storeID string, currency enums.Currency, ttl time.Duration, now time.Time) *Cart {
	return &Cart{
		ID:             uuid.NewString(),
		CustomerID:     customerID,
		StoreID:        storeID,
		Status:         enums.CartStatusActive,
		Currency:       currency,
		Items:          []Item{},
		DiscountAmount: decimal.Zero,
		Subtotal:       decimal.Zero,
		TaxAmount:      decimal.Zero,
		TotalAmount:    decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(ttl),
	}
}

// CustomizationSignature normalizes selected options into a stable identity
// key: lowercased key=value pairs, sorted, joined with ";". No options
// normalizes to the empty signature.
func CustomizationSignature(options map[string]string) string {
	if len(options) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(options))
	for key, value := range options {
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.ToLower(strings.TrimSpace(value))
		if key == "" {
			continue
		}
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, value))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ";")
}

// IsActive reports whether the cart accepts mutation.
func (c *Cart) IsActive() bool {
	return c != nil && c.Status == enums.CartStatusActive
}

// FindItem returns the index of the line matching the identity pair.
func (c *Cart) FindItem(productID, signature string) (int, bool) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].CustomizationSignature == signature {
			return i, true
		}
	}
	return -1, false
}

// RecomputeTotals rederives subtotal, tax and total from the item lines.
// The discount is clamped so the total never goes negative.
func (c *Cart) RecomputeTotals(taxRate decimal.Decimal) {
	subtotal := decimal.Zero
	for i := range c.Items {
		c.Items[i].TotalPrice = c.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(c.Items[i].Quantity)))
		subtotal = subtotal.Add(c.Items[i].TotalPrice)
	}
	c.Subtotal = subtotal
	c.TaxAmount = subtotal.Mul(taxRate).Round(2)

	if c.DiscountAmount.GreaterThan(subtotal) {
		c.DiscountAmount = subtotal
	}
	total := subtotal.Add(c.TaxAmount).Sub(c.DiscountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	c.TotalAmount = total
}

// Touch marks the cart mutated and refreshes its expiry window.
func (c *Cart) Touch(ttl time.Duration, now time.Time) {
	c.UpdatedAt = now
	c.ExpiresAt = now.Add(ttl)
}
