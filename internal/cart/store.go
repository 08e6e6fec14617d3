package cart

import (
	"context"
	"errors"
)

// ErrNotFound covers both missing and expired carts: once the TTL elapses the
// record is unrecoverable and reads must behave as if it never existed.
var ErrNotFound = errors.New("cart not found")

// Store is the persistence seam for cart state. The primary record operations
// are fail-hard; customer-index maintenance is fail-soft (implementations log
// and swallow index errors so a broken index never blocks a cart write).
type Store interface {
	Load(ctx context.Context, cartID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, cartID string) error

	AddToCustomerIndex(ctx context.Context, customerID, cartID string)
	RemoveFromCustomerIndex(ctx context.Context, customerID, cartID string)
	CustomerCartIDs(ctx context.Context, customerID string) ([]string, error)
}
