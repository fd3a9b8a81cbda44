package enums

import "fmt"

// PaymentMethod is how a customer settles an order.
type PaymentMethod string

const (
	PaymentMethodCounter PaymentMethod = "counter"
	PaymentMethodGCash   PaymentMethod = "gcash"
	PaymentMethodPayMaya PaymentMethod = "paymaya"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCounter,
	PaymentMethodGCash,
	PaymentMethodPayMaya,
}

// String implements fmt.Stringer.
func (m PaymentMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known PaymentMethod.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsOnline reports whether the method settles through an external gateway.
// Counter orders are exempt from the unpaid-order expiry sweep.
func (m PaymentMethod) IsOnline() bool {
	return m == PaymentMethodGCash || m == PaymentMethodPayMaya
}

// OnlinePaymentMethods lists the gateway-settled methods.
func OnlinePaymentMethods() []PaymentMethod {
	return []PaymentMethod{PaymentMethodGCash, PaymentMethodPayMaya}
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
