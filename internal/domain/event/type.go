package event

// Type identifies the kind of domain event
type Type string

const (
	TypeDraftSet          Type = "draft.set"
	TypeDraftCleared      Type = "draft.cleared"
	TypeInvoiceFinalized  Type = "invoice.finalized"
	TypeInvoicePaid       Type = "invoice.paid"
	TypeCustomerUpserted  Type = "customer.upserted"
	TypeReminderCreated   Type = "reminder.created"
	TypeReminderCompleted Type = "reminder.completed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeDraftSet,
		TypeDraftCleared,
		TypeInvoiceFinalized,
		TypeInvoicePaid,
		TypeCustomerUpserted,
		TypeReminderCreated,
		TypeReminderCompleted:
		return true
	default:
		return false
	}
}
