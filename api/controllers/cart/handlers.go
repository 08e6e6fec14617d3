package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shoplane/shoplane-backend/api/middleware"
	"github.com/shoplane/shoplane-backend/api/responses"
	"github.com/shoplane/shoplane-backend/api/validators"
	cartsvc "github.com/shoplane/shoplane-backend/internal/cart"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
	"github.com/shoplane/shoplane-backend/pkg/logger"
)

type createCartRequest struct {
	StoreID  string `json:"store_id" validate:"required"`
	Currency string `json:"currency,omitempty"`
}

// Create opens a new cart. Guests get anonymous carts; a bearer token binds
// the cart to the customer.
func Create(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateCart(r.Context(), cartsvc.CreateCartInput{
			CustomerID: middleware.CustomerIDFromContext(r.Context()),
			StoreID:    payload.StoreID,
			Currency:   payload.Currency,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// Get returns a cart with best-effort display enrichment.
func Get(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.GetCart(r.Context(), chi.URLParam(r, "cartId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Delete removes a cart outright.
func Delete(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteCart(r.Context(), chi.URLParam(r, "cartId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ListMine returns the authenticated customer's active carts.
func ListMine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := middleware.CustomerIDFromContext(r.Context())
		if customerID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing"))
			return
		}

		carts, err := svc.ListCustomerCarts(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, carts)
	}
}

type addItemRequest struct {
	ProductID     string            `json:"product_id" validate:"required"`
	Quantity      int               `json:"quantity" validate:"required,min=1"`
	Customization map[string]string `json:"customization,omitempty"`
}

// AddItem adds or merges a line. The unit price always comes from the
// catalog, never from the request.
func AddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.AddItem(r.Context(), chi.URLParam(r, "cartId"), cartsvc.AddItemInput{
			ProductID:     payload.ProductID,
			Quantity:      payload.Quantity,
			Customization: payload.Customization,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

type updateItemRequest struct {
	Quantity      int               `json:"quantity" validate:"min=0"`
	Customization map[string]string `json:"customization,omitempty"`
}

// UpdateItem sets a line's exact quantity. Zero removes the line. The
// customization options identify which line when the product appears more
// than once.
func UpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateItemQuantity(
			r.Context(),
			chi.URLParam(r, "cartId"),
			chi.URLParam(r, "productId"),
			cartsvc.CustomizationSignature(payload.Customization),
			payload.Quantity,
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

type removeItemRequest struct {
	Customization map[string]string `json:"customization,omitempty"`
}

// RemoveItem drops a line. As with UpdateItem, the customization options in
// the optional body select between customized lines of the same product; no
// body removes the plain line.
func RemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload removeItemRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		updated, err := svc.RemoveItem(
			r.Context(),
			chi.URLParam(r, "cartId"),
			chi.URLParam(r, "productId"),
			cartsvc.CustomizationSignature(payload.Customization),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// Clear removes every line from the cart.
func Clear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updated, err := svc.ClearCart(r.Context(), chi.URLParam(r, "cartId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

type applyDiscountRequest struct {
	Code string `json:"code" validate:"required"`
}

// ApplyDiscount attaches a discount code, replacing any previous one.
func ApplyDiscount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload applyDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.ApplyDiscount(r.Context(), chi.URLParam(r, "cartId"), payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// Validate re-checks the cart against live catalog and inventory state.
func Validate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.ValidateCart(r.Context(), chi.URLParam(r, "cartId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
	Notes         string `json:"notes,omitempty"`
}

// Checkout runs the order pipeline and returns the created sale reference.
func Checkout(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), chi.URLParam(r, "cartId"), cartsvc.CheckoutInput{
			PaymentMethod: payload.PaymentMethod,
			Notes:         payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
