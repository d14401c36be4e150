package order

import "fmt"

// Status values are the exact wire and database literals the storefront
// clients already depend on.
type Status string

const (
	StatusCreated   Status = "оформлен"
	StatusAssembled Status = "собран"
	StatusReceived  Status = "получен"
)

// ParseStatus accepts only known status literals. Any known status may be
// set from any prior one; there is deliberately no transition table.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusCreated, StatusAssembled, StatusReceived:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

type DeliveryMethod string

// Pickup is the only supported delivery method.
const DeliveryPickup DeliveryMethod = "самовывоз"

func ParseDeliveryMethod(s string) (DeliveryMethod, error) {
	if DeliveryMethod(s) == DeliveryPickup {
		return DeliveryPickup, nil
	}
	return "", fmt.Errorf("unknown delivery method %q", s)
}

type PaymentMethod string

// Cash on delivery is the only supported payment method.
const PaymentCashOnDelivery PaymentMethod = "при получении"

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	if PaymentMethod(s) == PaymentCashOnDelivery {
		return PaymentCashOnDelivery, nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}
