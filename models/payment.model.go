package models

// PaymentStatus tracks the settlement of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// PaymentMethod is how the customer intends to pay. No gateway is integrated;
// the admin records the outcome with a PaymentUpdate.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMobileMoney    PaymentMethod = "MOBILE_MONEY"
	PaymentCard           PaymentMethod = "CARD"
	PaymentBankTransfer   PaymentMethod = "BANK_TRANSFER"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentMobileMoney, PaymentCard, PaymentBankTransfer:
		return true
	}
	return false
}

// PaymentUpdate is the admin request changing the payment state of an order.
type PaymentUpdate struct {
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	TransactionID *string       `json:"transactionId"`
}
