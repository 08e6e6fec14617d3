package cart

import (
	"context"
	"time"

	"github.com/shoplane/shoplane-backend/internal/sales"
	"github.com/shoplane/shoplane-backend/pkg/enums"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
)

// CheckoutInput captures the order intent attached at checkout time. The
// payment method is recorded on the sale; no charge happens here.
type CheckoutInput struct {
	PaymentMethod string
	Notes         string
}

// CheckoutResult reports the terminal outcome of a successful checkout.
// Steps records the saga states traversed, in order.
type CheckoutResult struct {
	SaleID string                `json:"sale_id"`
	State  enums.CheckoutState   `json:"state"`
	Steps  []enums.CheckoutState `json:"steps"`
	Cart   *Cart                 `json:"cart"`
}

// Checkout runs the order pipeline: full validation, sale submission, then
// cart completion. The cart is mutated only after the sale is accepted, so a
// failed checkout always leaves it ACTIVE and retryable. The sale is
// submitted at most once per call; retries are the caller's decision.
func (e *engine) Checkout(ctx context.Context, cartID string, input CheckoutInput) (*CheckoutResult, error) {
	started := time.Now()

	loaded, err := e.loadCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if loaded.Status == enums.CartStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart already checked out").
			WithDetails(map[string]string{"sale_id": loaded.SaleID})
	}
	if !loaded.IsActive() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart is not active").
			WithDetails(map[string]string{"status": loaded.Status.String()})
	}
	if len(loaded.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart has no items")
	}

	method := enums.PaymentMethod(input.PaymentMethod)
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method").
			WithDetails(map[string]string{"payment_method": input.PaymentMethod})
	}

	steps := []enums.CheckoutState{enums.CheckoutStatePendingValidation}

	validation, err := e.validate(ctx, loaded)
	if err != nil {
		e.observeFailure(started, "validation_error")
		return nil, err
	}
	if !validation.Valid {
		e.observeFailure(started, "cart_invalid")
		e.logg.Warn(e.logg.WithFields(ctx, map[string]any{
			"cart_id": loaded.ID,
			"state":   enums.CheckoutStateRejected.String(),
		}), "checkout.rejected")
		return nil, pkgerrors.New(pkgerrors.CodeCartValidation, "cart failed validation").
			WithDetails(map[string]any{"issues": validation.Issues})
	}

	// No reservation is made against inventory; the sales service owns the
	// stock decrement when it records the sale, so the flow goes straight
	// from validation to sale submission.
	steps = append(steps, enums.CheckoutStateSkipped)
	saleID, err := e.sales.CreateSale(ctx, e.buildOrder(loaded, method, input.Notes))
	if err != nil {
		e.observeFailure(started, "sale_rejected")
		e.logg.Error(e.logg.WithCartID(ctx, loaded.ID), "checkout.sale_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeCheckoutFailed, err, "submit sale")
	}
	steps = append(steps, enums.CheckoutStateCommitted)

	now := time.Now()
	loaded.Status = enums.CartStatusCompleted
	loaded.SaleID = saleID
	loaded.CompletedAt = &now
	loaded.UpdatedAt = now
	if err := e.store.Save(ctx, loaded); err != nil {
		// The sale exists; the cart record is the casualty. Surface the sale
		// id so the caller does not resubmit.
		e.observeFailure(started, "persist_failed")
		persistCtx := e.logg.WithFields(ctx, map[string]any{"cart_id": loaded.ID, "sale_id": saleID})
		e.logg.Error(persistCtx, "checkout.persist_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeCheckoutFailed, err, "sale created but cart not finalized").
			WithDetails(map[string]string{"sale_id": saleID})
	}
	e.store.RemoveFromCustomerIndex(ctx, loaded.CustomerID, loaded.ID)

	e.metrics.ObserveCheckout("success", time.Since(started))
	e.metrics.IncCheckoutSuccess()
	e.logg.Info(e.logg.WithFields(ctx, map[string]any{
		"cart_id": loaded.ID,
		"sale_id": saleID,
		"total":   loaded.TotalAmount.String(),
	}), "checkout.completed")

	steps = append(steps, enums.CheckoutStateDone)
	return &CheckoutResult{SaleID: saleID, State: enums.CheckoutStateDone, Steps: steps, Cart: loaded}, nil
}

func (e *engine) buildOrder(loaded *Cart, method enums.PaymentMethod, notes string) sales.Order {
	lines := make([]sales.OrderLine, 0, len(loaded.Items))
	for _, item := range loaded.Items {
		lines = append(lines, sales.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return sales.Order{
		CartID:         loaded.ID,
		StoreID:        loaded.StoreID,
		CustomerID:     loaded.CustomerID,
		Currency:       loaded.Currency.String(),
		Lines:          lines,
		Subtotal:       loaded.Subtotal,
		TaxAmount:      loaded.TaxAmount,
		DiscountAmount: loaded.DiscountAmount,
		TotalAmount:    loaded.TotalAmount,
		PaymentMethod:  method.String(),
		Notes:          notes,
	}
}

func (e *engine) observeFailure(started time.Time, reason string) {
	e.metrics.ObserveCheckout("failure", time.Since(started))
	e.metrics.IncCheckoutFailure(reason)
}
