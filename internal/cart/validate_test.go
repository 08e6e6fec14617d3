package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateCleanCart(t *testing.T) {
	t.Parallel()

	cat := newStubCatalog()
	cat.add("p1", "Beans", "4.00", true)
	inv := &stubInventory{stock: map[string]int{"p1": 5}}
	svc := newTestEngine(t, newMemStore(), cat, inv, &stubSales{})

	cartID := mustCreateCart(t, svc, "cust-1")
	if _, err := svc.AddItem(context.Background(), cartID, AddItemInput{ProductID: "p1", Quantity: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.ValidateCart(context.Background(), cartID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid || len(result.Issues) != 0 || len(result.Warnings) != 0 {
		t.Fatalf("expected clean result, got %+v", result)
	}
}

func TestValidatePriceDriftWithinTolerance(t *testing.T) {
	t.Parallel()

	cat := newStubCatalog()
	cat.add("p1", "Beans", "4.00", true)
	inv := &stubInventory{stock: map[string]int{"p1": 5}}
	svc := newTestEngine(t, newMemStore(), cat, inv, &stubSales{})

	cartID := mustCreateCart(t, svc, "cust-1")
	if _, err := svc.AddItem(context.Background(), cartID, AddItemInput{ProductID: "p1", Quantity: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One cent of drift sits exactly on the configured tolerance.
	cat.add("p1", "Beans", "4.01", true)

	result, err := svc.ValidateCart(context.Background(), cartID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid || len(result.Issues) != 0 {
		t.Fatalf("expected drift within tolerance to stay valid, got %+v", result.Issues)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("expected negligible drift to go unreported, got %+v", result.Warnings)
	}
}

func TestValidatePriceDriftBeyondTolerance(t *testing.T) {
	t.Parallel()

	cat := newStubCatalog()
	cat.add("p1", "Beans", "4.00", true)
	inv := &stubInventory{stock: map[string]int{"p1": 5}}
	store := newMemStore()
	svc := newTestEngine(t, store, cat, inv, &stubSales{})

	cartID := mustCreateCart(t, svc, "cust-1")
	if _, err := svc.AddItem(context.Background(), cartID, AddItemInput{ProductID: "p1", Quantity: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cat.add("p1", "Beans", "5.00", true)

	result, err := svc.ValidateCart(context.Background(), cartID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Drift warns but never blocks: the cart stays checkout-able.
	if !result.Valid || len(result.Issues) != 0 {
		t.Fatalf("expected price drift to stay non-blocking, got %+v", result.Issues)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected one price warning, got %+v", result.Warnings)
	}
	warning := result.Warnings[0]
	if warning.Kind != WarningPriceChanged || warning.CapturedPrice != "4.00" || warning.CurrentPrice != "5.00" {
		t.Fatalf("unexpected warning %+v", warning)
	}

	// Validation never rewrites the captured price.
	reloaded, err := store.Load(context.Background(), cartID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reloaded.Items[0].UnitPrice.Equal(decimal.RequireFromString("4.00")) {
		t.Fatalf("expected captured price unchanged, got %s", reloaded.Items[0].UnitPrice)
	}
}

func TestValidateProductGone(t *testing.T) {
	t.Parallel()

	cat := newStubCatalog()
	cat.add("p1", "Beans", "4.00", true)
	inv := &stubInventory{stock: map[string]int{"p1": 5}}
	svc := newTestEngine(t, newMemStore(), cat, inv, &stubSales{})

	cartID := mustCreateCart(t, svc, "cust-1")
	if _, err := svc.AddItem(context.Background(), cartID, AddItemInput{ProductID: "p1", Quantity: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	delete(cat.products, "p1")

	result, err := svc.ValidateCart(context.Background(), cartID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid || len(result.Issues) != 1 || result.Issues[0].Kind != IssueProductUnavailable {
		t.Fatalf("expected product unavailable issue, got %+v", result)
	}
}

func TestValidateProductDeactivated(t *testing.T) {
	t.Parallel()

	cat := newStubCatalog()
	cat.add("p1", "Beans", "4.00", true)
	inv := &stubInventory{stock: map[string]int{"p1": 5}}
	svc := newTestEngine(t, newMemStore(), cat, inv, &stubSales{})

	cartID := mustCreateCart(t, svc, "cust-1")
	if _, err := svc.AddItem(context.Background(), cartID, AddItemInput{ProductID: "p1", Quantity: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cat.add("p1", "Beans", "4.00", false)

	result, err := svc.ValidateCart(context.Background(), cartID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid || len(result.Issues) != 1 || result.Issues[0].Kind != IssueProductUnavailable {
		t.Fatalf("expected product unavailable issue, got %+v", result)
	}
}

func TestValidateInsufficientStock(t *testing.T) {
	t.Parallel()

	cat := newStubCatalog()
	cat.add("p1", "Beans", "4.00", true)
	inv := &stubInventory{stock: map[string]int{"p1": 5}}
	svc := newTestEngine(t, newMemStore(), cat, inv, &stubSales{})

	cartID := mustCreateCart(t, svc, "cust-1")
	if _, err := svc.AddItem(context.Background(), cartID, AddItemInput{ProductID: "p1", Quantity: 4}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inv.stock["p1"] = 2

	result, err := svc.ValidateCart(context.Background(), cartID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid || len(result.Issues) != 1 {
		t.Fatalf("expected single stock issue, got %+v", result)
	}
	issue := result.Issues[0]
	if issue.Kind != IssueInsufficientStock || issue.Requested != 4 || issue.Available != 2 {
		t.Fatalf("unexpected issue %+v", issue)
	}
}

func TestValidateDiscountNoLongerQualifies(t *testing.T) {
	t.Parallel()

	cat := newStubCatalog()
	cat.add("p1", "Beans", "60.00", true)
	inv := &stubInventory{stock: map[string]int{"p1": 5}}
	store := newMemStore()
	svc := newTestEngine(t, store, cat, inv, &stubSales{})

	cartID := mustCreateCart(t, svc, "cust-1")
	if _, err := svc.AddItem(context.Background(), cartID, AddItemInput{ProductID: "p1", Quantity: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ApplyDiscount(context.Background(), cartID, "SAVE10"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Force a stale discount state that mutation paths would normally drop.
	store.mutate(t, cartID, func(c *Cart) {
		c.Subtotal = decimal.RequireFromString("20.00")
	})

	result, err := svc.ValidateCart(context.Background(), cartID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Fatal("expected stale discount to invalidate the cart")
	}
	found := false
	for _, issue := range result.Issues {
		if issue.Kind == IssueDiscountInvalid {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected discount issue, got %+v", result.Issues)
	}
}
