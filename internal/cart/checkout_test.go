package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/shoplane/shoplane-backend/pkg/enums"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
)

func TestCheckoutSuccess(t *testing.T) {
	t.Parallel()

	cat := newStubCatalog()
	cat.add("p1", "Beans", "30.00", true)
	inv := &stubInventory{stock: map[string]int{"p1": 5}}
	sal := &stubSales{saleID: "sale-42"}
	store := newMemStore()
	svc := newTestEngine(t, store, cat, inv, sal)

	cartID := mustCreateCart(t, svc, "cust-1")
	if _, err := svc.AddItem(context.Background(), cartID, AddItemInput{ProductID: "p1", Quantity: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.Checkout(context.Background(), cartID, CheckoutInput{PaymentMethod: "card"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.SaleID != "sale-42" {
		t.Fatalf("expected sale id from sales service, got %q", result.SaleID)
	}
	if result.State != enums.CheckoutStateDone {
		t.Fatalf("expected done state, got %s", result.State)
	}
	wantSteps := []enums.CheckoutState{
		enums.CheckoutStatePendingValidation,
		enums.CheckoutStateSkipped,
		enums.CheckoutStateCommitted,
		enums.CheckoutStateDone,
	}
	if len(result.Steps) != len(wantSteps) {
		t.Fatalf("expected %d saga steps, got %v", len(wantSteps), result.Steps)
	}
	for i, step := range wantSteps {
		if result.Steps[i] != step {
			t.Fatalf("expected step %d to be %s, got %v", i, step, result.Steps)
		}
	}
	if result.Cart.Status != enums.CartStatusCompleted {
		t.Fatalf("expected COMPLETED cart, got %s", result.Cart.Status)
	}
	if result.Cart.SaleID != "sale-42" || result.Cart.CompletedAt == nil {
		t.Fatal("expected sale id and completion time recorded on the cart")
	}
	if sal.calls != 1 {
		t.Fatalf("expected exactly one sale submission, got %d", sal.calls)
	}

	// The submitted order carries the engine's computed amounts.
	if !sal.lastOrder.Subtotal.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("unexpected order subtotal %s", sal.lastOrder.Subtotal)
	}
	if !sal.lastOrder.TotalAmount.Equal(decimal.RequireFromString("66.00")) {
		t.Fatalf("unexpected order total %s", sal.lastOrder.TotalAmount)
	}
	if sal.lastOrder.PaymentMethod != "card" {
		t.Fatalf("unexpected payment method %q", sal.lastOrder.PaymentMethod)
	}

	ids, err := store.CustomerCartIDs(context.Background(), "cust-1")
	if err != nil || len(ids) != 0 {
		t.Fatalf("expected completed cart removed from index, got %v err=%v", ids, err)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	t.Parallel()

	sal := &stubSales{}
	svc := newTestEngine(t, newMemStore(), newStubCatalog(), &stubInventory{}, sal)

	cartID := mustCreateCart(t, svc, "cust-1")
	_, err := svc.Checkout(context.Background(), cartID, CheckoutInput{PaymentMethod: "card"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected empty cart error, got %v", err)
	}
	if sal.calls != 0 {
		t.Fatalf("expected no sale submission, got %d", sal.calls)
	}
}

func TestCheckoutRejectsUnknownPaymentMethod(t *testing.T) {
	t.Parallel()

	cat := newStubCatalog()
	cat.add("p1", "Beans", "4.00", true)
	sal := &stubSales{}
	svc := newTestEngine(t, newMemStore(), cat, &stubInventory{stock: map[string]int{"p1": 5}}, sal)

	cartID := mustCreateCart(t, svc, "cust-1")
	if _, err := svc.AddItem(context.Background(), cartID, AddItemInput{ProductID: "p1", Quantity: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Checkout(context.Background(), cartID, CheckoutInput{PaymentMethod: "barter"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if sal.calls != 0 {
		t.Fatalf("expected no sale submission, got %d", sal.calls)
	}
}

func TestCheckoutSucceedsDespitePriceDrift(t *testing.T) {
	t.Parallel()

	cat := newStubCatalog()
	cat.add("p1", "Beans", "10.00", true)
	inv := &stubInventory{stock: map[string]int{"p1": 5}}
	sal := &stubSales{saleID: "sale-55"}
	svc := newTestEngine(t, newMemStore(), cat, inv, sal)

	cartID := mustCreateCart(t, svc, "cust-1")
	if _, err := svc.AddItem(context.Background(), cartID, AddItemInput{ProductID: "p1", Quantity: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The catalog price moves well past the drift tolerance before checkout.
	cat.add("p1", "Beans", "12.00", true)

	result, err := svc.Checkout(context.Background(), cartID, CheckoutInput{PaymentMethod: "card"})
	if err != nil {
		t.Fatalf("expected drift to warn without blocking checkout, got %v", err)
	}
	if result.SaleID != "sale-55" || sal.calls != 1 {
		t.Fatalf("expected one sale submission, got %q calls=%d", result.SaleID, sal.calls)
	}
	// The order is billed at the captured price, not the drifted one.
	if !sal.lastOrder.Subtotal.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected captured price on the order, got %s", sal.lastOrder.Subtotal)
	}
}

func TestCheckoutValidationFailureSkipsSale(t *testing.T) {
	t.Parallel()

	cat := newStubCatalog()
	cat.add("p1", "Beans", "4.00", true)
	inv := &stubInventory{stock: map[string]int{"p1": 5}}
	sal := &stubSales{}
	store := newMemStore()
	svc := newTestEngine(t, store, cat, inv, sal)

	cartID := mustCreateCart(t, svc, "cust-1")
	if _, err := svc.AddItem(context.Background(), cartID, AddItemInput{ProductID: "p1", Quantity: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Stock drains between add and checkout.
	inv.stock["p1"] = 1

	_, err := svc.Checkout(context.Background(), cartID, CheckoutInput{PaymentMethod: "card"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCartValidation {
		t.Fatalf("expected cart validation failure, got %v", err)
	}
	if sal.calls != 0 {
		t.Fatalf("expected no sale submission on invalid cart, got %d", sal.calls)
	}

	reloaded, err := store.Load(context.Background(), cartID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.Status != enums.CartStatusActive {
		t.Fatalf("expected cart untouched and ACTIVE, got %s", reloaded.Status)
	}
}

func TestCheckoutSaleFailureLeavesCartRetryable(t *testing.T) {
	t.Parallel()

	cat := newStubCatalog()
	cat.add("p1", "Beans", "30.00", true)
	inv := &stubInventory{stock: map[string]int{"p1": 5}}
	sal := &stubSales{errs: []error{errors.New("sales service down")}}
	store := newMemStore()
	svc := newTestEngine(t, store, cat, inv, sal)

	cartID := mustCreateCart(t, svc, "cust-1")
	if _, err := svc.AddItem(context.Background(), cartID, AddItemInput{ProductID: "p1", Quantity: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Checkout(context.Background(), cartID, CheckoutInput{PaymentMethod: "card"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCheckoutFailed {
		t.Fatalf("expected checkout failed, got %v", err)
	}

	reloaded, err := store.Load(context.Background(), cartID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.Status != enums.CartStatusActive {
		t.Fatalf("expected cart still ACTIVE after failure, got %s", reloaded.Status)
	}
	if len(reloaded.Items) != 1 {
		t.Fatalf("expected items preserved, got %d lines", len(reloaded.Items))
	}

	// The same cart checks out once the sales service recovers.
	result, err := svc.Checkout(context.Background(), cartID, CheckoutInput{PaymentMethod: "card"})
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if result.Cart.Status != enums.CartStatusCompleted {
		t.Fatalf("expected COMPLETED after retry, got %s", result.Cart.Status)
	}
	if sal.calls != 2 {
		t.Fatalf("expected two sale submissions across both attempts, got %d", sal.calls)
	}
}

func TestCheckoutAlreadyCompleted(t *testing.T) {
	t.Parallel()

	sal := &stubSales{}
	store := newMemStore()
	svc := newTestEngine(t, store, newStubCatalog(), &stubInventory{}, sal)

	cartID := mustCreateCart(t, svc, "cust-1")
	store.mutate(t, cartID, func(c *Cart) {
		c.Status = enums.CartStatusCompleted
		c.SaleID = "sale-9"
	})

	_, err := svc.Checkout(context.Background(), cartID, CheckoutInput{PaymentMethod: "card"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["sale_id"] != "sale-9" {
		t.Fatalf("expected existing sale id in details, got %v", typed.Details())
	}
	if sal.calls != 0 {
		t.Fatalf("expected no sale submission, got %d", sal.calls)
	}
}

func TestCheckoutPersistFailureSurfacesSaleID(t *testing.T) {
	t.Parallel()

	cat := newStubCatalog()
	cat.add("p1", "Beans", "30.00", true)
	inv := &stubInventory{stock: map[string]int{"p1": 5}}
	sal := &stubSales{saleID: "sale-77"}
	store := newMemStore()
	store.failCompletedSave = true
	svc := newTestEngine(t, store, cat, inv, sal)

	cartID := mustCreateCart(t, svc, "cust-1")
	if _, err := svc.AddItem(context.Background(), cartID, AddItemInput{ProductID: "p1", Quantity: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Checkout(context.Background(), cartID, CheckoutInput{PaymentMethod: "card"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeCheckoutFailed {
		t.Fatalf("expected checkout failed, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["sale_id"] != "sale-77" {
		t.Fatalf("expected sale id surfaced so the caller does not resubmit, got %v", typed.Details())
	}
	if sal.calls != 1 {
		t.Fatalf("expected the sale submitted exactly once, got %d", sal.calls)
	}
}
