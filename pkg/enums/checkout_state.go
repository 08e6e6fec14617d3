package enums

// CheckoutState labels the steps of the checkout saga. A checkout either walks
// pending_validation -> skipped -> committed -> done, or aborts to rejected
// before any external write happens. The reservation step is always skipped:
// the sales service owns the stock decrement when it records the sale.
type CheckoutState string

const (
	CheckoutStatePendingValidation CheckoutState = "pending_validation"
	CheckoutStateSkipped           CheckoutState = "skipped"
	CheckoutStateCommitted         CheckoutState = "committed"
	CheckoutStateDone              CheckoutState = "done"
	CheckoutStateRejected          CheckoutState = "rejected"
)

// String implements fmt.Stringer.
func (c CheckoutState) String() string {
	return string(c)
}
