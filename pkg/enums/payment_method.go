package enums

import "fmt"

// PaymentMethod names how the shopper intends to pay. It is recorded on the
// sale, never charged by this service.
type PaymentMethod string

const (
	PaymentMethodCard        PaymentMethod = "card"
	PaymentMethodCash        PaymentMethod = "cash"
	PaymentMethodStoreCredit PaymentMethod = "store_credit"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCard,
	PaymentMethodCash,
	PaymentMethodStoreCredit,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the payment method is recognized.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts a raw string into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
