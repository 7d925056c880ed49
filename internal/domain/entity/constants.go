package entity

import "strings"

// PaymentStatus tracks whether a finalized invoice has been settled
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
)

// PaymentMode records how an invoice was settled
type PaymentMode string

const (
	PaymentModeNone PaymentMode = ""
	PaymentModeUPI  PaymentMode = "UPI"
	PaymentModeCash PaymentMode = "Cash"
	PaymentModeCard PaymentMode = "Card"
)

// ParsePaymentMode maps loose spoken or typed modes onto the known set.
// Anything unrecognised yields PaymentModeNone.
func ParsePaymentMode(s string) PaymentMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upi", "gpay", "phonepe", "paytm":
		return PaymentModeUPI
	case "cash", "nakad", "naqad":
		return PaymentModeCash
	case "card", "debit card", "credit card":
		return PaymentModeCard
	default:
		return PaymentModeNone
	}
}

// ReminderStatus is the lifecycle of a reminder; it only moves forward
type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "Pending"
	ReminderCompleted ReminderStatus = "Completed"
)

// ManualProductID marks a line item that matched no catalog product
const ManualProductID = "manual"

// DefaultUnit labels quantities when neither the input nor the catalog has one
const DefaultUnit = "unit"

// Role identifies who authored a transcript message
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)
