package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shoplane/shoplane-backend/internal/catalog"
	"github.com/shoplane/shoplane-backend/internal/sales"
	"github.com/shoplane/shoplane-backend/pkg/config"
	"github.com/shoplane/shoplane-backend/pkg/enums"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
	"github.com/shoplane/shoplane-backend/pkg/logger"
	"github.com/shoplane/shoplane-backend/pkg/metrics"
)

type catalogClient interface {
	GetProduct(ctx context.Context, productID string) (*catalog.Product, error)
}

type inventoryClient interface {
	GetAvailable(ctx context.Context, storeID, productID string) (int, error)
}

type salesClient interface {
	CreateSale(ctx context.Context, order sales.Order) (string, error)
}

// Service is the cart engine: cart lifecycle, item mutation, pricing,
// validation and checkout orchestration. It is stateless between calls; all
// cart state lives in the Store.
type Service interface {
	CreateCart(ctx context.Context, input CreateCartInput) (*Cart, error)
	GetCart(ctx context.Context, cartID string) (*CartView, error)
	ListCustomerCarts(ctx context.Context, customerID string) ([]*Cart, error)
	DeleteCart(ctx context.Context, cartID string) error

	AddItem(ctx context.Context, cartID string, input AddItemInput) (*Cart, error)
	UpdateItemQuantity(ctx context.Context, cartID, productID, signature string, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, cartID, productID, signature string) (*Cart, error)
	ClearCart(ctx context.Context, cartID string) (*Cart, error)
	ApplyDiscount(ctx context.Context, cartID, code string) (*Cart, error)

	ValidateCart(ctx context.Context, cartID string) (*ValidationResult, error)
	Checkout(ctx context.Context, cartID string, input CheckoutInput) (*CheckoutResult, error)
}

type engine struct {
	store     Store
	catalog   catalogClient
	inventory inventoryClient
	sales     salesClient
	rules     map[string]DiscountRule
	cfg       config.CartConfig
	logg      *logger.Logger
	metrics   *metrics.CartMetrics
}

// EngineParams collects the engine's dependency stack.
type EngineParams struct {
	Store     Store
	Catalog   catalogClient
	Inventory inventoryClient
	Sales     salesClient
	Rules     map[string]DiscountRule
	Config    config.CartConfig
	Logger    *logger.Logger
	Metrics   *metrics.CartMetrics
}

// NewEngine builds the cart engine backed by the provided stack.
func NewEngine(params EngineParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog client required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory client required")
	}
	if params.Sales == nil {
		return nil, fmt.Errorf("sales client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Rules == nil {
		params.Rules = DefaultDiscountRules()
	}
	return &engine{
		store:     params.Store,
		catalog:   params.Catalog,
		inventory: params.Inventory,
		sales:     params.Sales,
		rules:     params.Rules,
		cfg:       params.Config,
		logg:      params.Logger,
		metrics:   params.Metrics,
	}, nil
}

// CreateCartInput captures the payload for opening a fresh cart.
type CreateCartInput struct {
	CustomerID string
	StoreID    string
	Currency   string
}

// AddItemInput captures one add-to-cart request. The price is never taken
// from the caller; it is fetched from the catalog at add-time.
type AddItemInput struct {
	ProductID     string
	Quantity      int
	Customization map[string]string
}

// CartView is a cart enriched with best-effort live display data.
type CartView struct {
	Cart     *Cart         `json:"cart"`
	Display  []ItemDisplay `json:"display,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}

// ItemDisplay carries current catalog data for one cart line.
type ItemDisplay struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	IsActive     bool            `json:"is_active"`
	ImageURL     string          `json:"image_url,omitempty"`
}

// CreateCart opens an empty active cart bound to a store context.
func (e *engine) CreateCart(ctx context.Context, input CreateCartInput) (*Cart, error) {
	if input.StoreID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	currency := enums.Currency(input.Currency)
	if input.Currency == "" {
		currency = enums.Currency(e.cfg.DefaultCurrency)
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency").
			WithDetails(map[string]string{"currency": input.Currency})
	}

	now := time.Now()
	created := NewCart(input.CustomerID, input.StoreID, currency, e.cfg.TTL, now)
	if err := e.store.Save(ctx, created); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist cart")
	}
	e.store.AddToCustomerIndex(ctx, created.CustomerID, created.ID)
	e.metrics.IncMutation("create_cart")
	return created, nil
}

// GetCart returns a cart of any status, enriched with live catalog display
// data. Enrichment is best-effort: upstream failures degrade to warnings.
func (e *engine) GetCart(ctx context.Context, cartID string) (*CartView, error) {
	loaded, err := e.loadCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	view := &CartView{Cart: loaded}
	for _, item := range loaded.Items {
		product, err := e.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			view.Warnings = append(view.Warnings,
				fmt.Sprintf("display data unavailable for product %s", item.ProductID))
			continue
		}
		view.Display = append(view.Display, ItemDisplay{
			ProductID:    product.ID,
			Name:         product.Name,
			CurrentPrice: product.Price,
			IsActive:     product.IsActive,
			ImageURL:     product.ImageURL,
		})
	}
	return view, nil
}

// ListCustomerCarts returns the customer's active carts. Index entries whose
// cart has expired are pruned as they are discovered.
func (e *engine) ListCustomerCarts(ctx context.Context, customerID string) ([]*Cart, error) {
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	ids, err := e.store.CustomerCartIDs(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list customer carts")
	}

	carts := make([]*Cart, 0, len(ids))
	for _, id := range ids {
		loaded, err := e.store.Load(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				e.store.RemoveFromCustomerIndex(ctx, customerID, id)
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load indexed cart")
		}
		if loaded.Status != enums.CartStatusActive {
			continue
		}
		carts = append(carts, loaded)
	}
	return carts, nil
}

// DeleteCart removes a cart and its index entry.
func (e *engine) DeleteCart(ctx context.Context, cartID string) error {
	loaded, err := e.loadCart(ctx, cartID)
	if err != nil {
		return err
	}
	if err := e.store.Delete(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart")
	}
	e.store.RemoveFromCustomerIndex(ctx, loaded.CustomerID, cartID)
	e.metrics.IncMutation("delete_cart")
	return nil
}

// AddItem validates the product against catalog and inventory, then merges or
// appends the line using the freshly fetched price.
func (e *engine) AddItem(ctx context.Context, cartID string, input AddItemInput) (*Cart, error) {
	if input.ProductID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	loaded, err := e.loadActiveCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	product, err := e.catalog.GetProduct(ctx, input.ProductID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeProductUnavailable, "product not found").
				WithDetails(map[string]string{"product_id": input.ProductID})
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeProductUnavailable, "product is inactive").
			WithDetails(map[string]string{"product_id": input.ProductID})
	}

	signature := CustomizationSignature(input.Customization)
	requested := input.Quantity
	idx, exists := loaded.FindItem(input.ProductID, signature)
	if exists {
		requested += loaded.Items[idx].Quantity
	}

	if err := e.checkStock(ctx, loaded.StoreID, input.ProductID, requested); err != nil {
		return nil, err
	}

	now := time.Now()
	if exists {
		loaded.Items[idx].Quantity = requested
		loaded.Items[idx].UpdatedAt = now
	} else {
		loaded.Items = append(loaded.Items, Item{
			ProductID:              product.ID,
			Name:                   product.Name,
			Quantity:               input.Quantity,
			UnitPrice:              product.Price,
			Customization:          input.Customization,
			CustomizationSignature: signature,
			AddedAt:                now,
			UpdatedAt:              now,
		})
	}

	if err := e.persistMutation(ctx, loaded, now); err != nil {
		return nil, err
	}
	e.metrics.IncMutation("add_item")
	return loaded, nil
}

// UpdateItemQuantity sets a line to an exact quantity after re-checking
// stock. Quantity zero removes the line.
func (e *engine) UpdateItemQuantity(ctx context.Context, cartID, productID, signature string, quantity int) (*Cart, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if quantity == 0 {
		return e.RemoveItem(ctx, cartID, productID, signature)
	}

	loaded, err := e.loadActiveCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	idx, exists := loaded.FindItem(productID, signature)
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart").
			WithDetails(map[string]string{"product_id": productID})
	}

	if err := e.checkStock(ctx, loaded.StoreID, productID, quantity); err != nil {
		return nil, err
	}

	now := time.Now()
	loaded.Items[idx].Quantity = quantity
	loaded.Items[idx].UpdatedAt = now

	if err := e.persistMutation(ctx, loaded, now); err != nil {
		return nil, err
	}
	e.metrics.IncMutation("update_item")
	return loaded, nil
}

// RemoveItem drops a line from the cart.
func (e *engine) RemoveItem(ctx context.Context, cartID, productID, signature string) (*Cart, error) {
	loaded, err := e.loadActiveCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	idx, exists := loaded.FindItem(productID, signature)
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart").
			WithDetails(map[string]string{"product_id": productID})
	}

	loaded.Items = append(loaded.Items[:idx], loaded.Items[idx+1:]...)

	if err := e.persistMutation(ctx, loaded, time.Now()); err != nil {
		return nil, err
	}
	e.metrics.IncMutation("remove_item")
	return loaded, nil
}

// ClearCart removes every line and recomputes the zero state.
func (e *engine) ClearCart(ctx context.Context, cartID string) (*Cart, error) {
	loaded, err := e.loadActiveCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	loaded.Items = []Item{}

	if err := e.persistMutation(ctx, loaded, time.Now()); err != nil {
		return nil, err
	}
	e.metrics.IncMutation("clear_cart")
	return loaded, nil
}

// ApplyDiscount looks the code up in the rule set and replaces any previously
// applied discount. Discounts are not cumulative.
func (e *engine) ApplyDiscount(ctx context.Context, cartID, code string) (*Cart, error) {
	normalized := NormalizeDiscountCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}

	loaded, err := e.loadActiveCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	rule, ok := e.rules[normalized]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidDiscount, "unknown discount code").
			WithDetails(map[string]string{"code": normalized})
	}
	if !rule.Qualifies(loaded.Subtotal) {
		return nil, pkgerrors.New(pkgerrors.CodeDiscountMinimum, "subtotal below discount minimum").
			WithDetails(map[string]string{
				"code":     normalized,
				"minimum":  rule.MinSubtotal.String(),
				"subtotal": loaded.Subtotal.String(),
			})
	}

	loaded.DiscountCode = normalized
	loaded.DiscountAmount = rule.AmountFor(loaded.Subtotal)

	if err := e.persistMutation(ctx, loaded, time.Now()); err != nil {
		return nil, err
	}
	e.metrics.IncMutation("apply_discount")
	return loaded, nil
}

// loadCart maps store misses to the typed not-found error.
func (e *engine) loadCart(ctx context.Context, cartID string) (*Cart, error) {
	if cartID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	loaded, err := e.store.Load(ctx, cartID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return loaded, nil
}

// loadActiveCart additionally rejects completed carts; they are immutable.
func (e *engine) loadActiveCart(ctx context.Context, cartID string) (*Cart, error) {
	loaded, err := e.loadCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !loaded.IsActive() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart is not active").
			WithDetails(map[string]string{"status": loaded.Status.String()})
	}
	return loaded, nil
}

func (e *engine) checkStock(ctx context.Context, storeID, productID string, requested int) error {
	available, err := e.inventory.GetAvailable(ctx, storeID, productID)
	if err != nil {
		return err
	}
	if requested > available {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock").
			WithDetails(map[string]any{
				"product_id": productID,
				"requested":  requested,
				"available":  available,
			})
	}
	return nil
}

// persistMutation rederives totals, refreshes the applied discount against the
// new subtotal, touches the TTL window and writes the cart back.
func (e *engine) persistMutation(ctx context.Context, loaded *Cart, now time.Time) error {
	e.refreshDiscount(ctx, loaded)
	loaded.RecomputeTotals(e.cfg.TaxRate())
	loaded.Touch(e.cfg.TTL, now)
	if err := e.store.Save(ctx, loaded); err != nil {
		if errors.Is(err, ErrNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist cart")
	}
	return nil
}

// refreshDiscount recomputes the applied rule against the current subtotal.
// A discount whose minimum is no longer met falls off the cart.
func (e *engine) refreshDiscount(ctx context.Context, loaded *Cart) {
	if loaded.DiscountCode == "" {
		loaded.DiscountAmount = decimal.Zero
		return
	}
	subtotal := decimal.Zero
	for _, item := range loaded.Items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	rule, ok := e.rules[loaded.DiscountCode]
	if !ok || !rule.Qualifies(subtotal) {
		e.logg.Info(e.logg.WithCartID(ctx, loaded.ID), "cart.discount_dropped")
		loaded.DiscountCode = ""
		loaded.DiscountAmount = decimal.Zero
		return
	}
	loaded.DiscountAmount = rule.AmountFor(subtotal)
}
