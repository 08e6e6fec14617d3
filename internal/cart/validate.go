package cart

import (
	"context"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
)

// Finding kinds reported by ValidateCart. Price drift never blocks; the
// captured price stands until the shopper re-adds the line.
const (
	IssueProductUnavailable = "product_unavailable"
	IssueInsufficientStock  = "insufficient_stock"
	IssueDiscountInvalid    = "discount_invalid"

	WarningPriceChanged = "price_changed"
)

// Issue is one blocking finding against a cart line or the cart itself.
type Issue struct {
	Kind      string `json:"kind"`
	ProductID string `json:"product_id,omitempty"`
	Message   string `json:"message"`

	Requested int `json:"requested,omitempty"`
	Available int `json:"available,omitempty"`
}

// Warning is a non-blocking finding. Price drift is surfaced here, with the
// captured and current prices, rather than failing validation.
type Warning struct {
	Kind      string `json:"kind"`
	ProductID string `json:"product_id,omitempty"`
	Message   string `json:"message"`

	CapturedPrice string `json:"captured_price,omitempty"`
	CurrentPrice  string `json:"current_price,omitempty"`
}

// ValidationResult is the outcome of a full cart re-check. Valid is true only
// when no blocking issue was found.
type ValidationResult struct {
	CartID   string    `json:"cart_id"`
	Valid    bool      `json:"valid"`
	Issues   []Issue   `json:"issues"`
	Warnings []Warning `json:"warnings"`
}

// ValidateCart re-checks every line against live catalog and inventory data
// without mutating the cart: captured prices stay as they were at add-time
// even when drift is detected. An unreachable upstream fails the call rather
// than producing a false positive.
func (e *engine) ValidateCart(ctx context.Context, cartID string) (*ValidationResult, error) {
	loaded, err := e.loadActiveCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return e.validate(ctx, loaded)
}

func (e *engine) validate(ctx context.Context, loaded *Cart) (*ValidationResult, error) {
	result := &ValidationResult{
		CartID:   loaded.ID,
		Valid:    true,
		Issues:   []Issue{},
		Warnings: []Warning{},
	}

	for _, item := range loaded.Items {
		product, err := e.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				result.Issues = append(result.Issues, Issue{
					Kind:      IssueProductUnavailable,
					ProductID: item.ProductID,
					Message:   "product no longer exists",
				})
				continue
			}
			return nil, err
		}
		if !product.IsActive {
			result.Issues = append(result.Issues, Issue{
				Kind:      IssueProductUnavailable,
				ProductID: item.ProductID,
				Message:   "product is no longer active",
			})
			continue
		}

		e.checkPriceDrift(result, item, product.Price)

		available, err := e.inventory.GetAvailable(ctx, loaded.StoreID, item.ProductID)
		if err != nil {
			return nil, err
		}
		if item.Quantity > available {
			result.Issues = append(result.Issues, Issue{
				Kind:      IssueInsufficientStock,
				ProductID: item.ProductID,
				Message:   "requested quantity exceeds available stock",
				Requested: item.Quantity,
				Available: available,
			})
		}
	}

	if loaded.DiscountCode != "" {
		rule, ok := e.rules[loaded.DiscountCode]
		if !ok || !rule.Qualifies(loaded.Subtotal) {
			result.Issues = append(result.Issues, Issue{
				Kind:    IssueDiscountInvalid,
				Message: "applied discount no longer qualifies",
			})
		}
	}

	result.Valid = len(result.Issues) == 0
	return result, nil
}

// checkPriceDrift compares the add-time price with the live catalog price.
// Drift within the rounding tolerance is negligible and goes unreported;
// beyond it, a warning carries both prices. Drift never blocks checkout.
func (e *engine) checkPriceDrift(result *ValidationResult, item Item, current decimal.Decimal) {
	if current.Equal(item.UnitPrice) {
		return
	}
	drift := current.Sub(item.UnitPrice).Abs()
	if drift.LessThanOrEqual(e.cfg.PriceDriftTolerance()) {
		return
	}
	result.Warnings = append(result.Warnings, Warning{
		Kind:          WarningPriceChanged,
		ProductID:     item.ProductID,
		Message:       "price changed since the item was added",
		CapturedPrice: item.UnitPrice.String(),
		CurrentPrice:  current.String(),
	})
}
