// Package intent models the classified output of the language-understanding
// step as a tagged union and coerces its loosely typed payload into domain
// values.
package intent

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/bharatbiz/bizagent/internal/domain/billing"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ErrMalformedPayload is the reason recorded when a payload cannot serve its intent
var ErrMalformedPayload = errors.New("malformed extracted data")

// Kind is the classified purpose of an utterance
type Kind string

const (
	KindBilling  Kind = "billing"
	KindQuery    Kind = "query"
	KindPayment  Kind = "payment"
	KindReminder Kind = "reminder"
	KindUnknown  Kind = "unknown"
)

// ParseKind maps a classifier label onto a Kind; unrecognised labels are unknown
func ParseKind(s string) Kind {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindBilling, KindQuery, KindPayment, KindReminder:
		return k
	default:
		return KindUnknown
	}
}

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// Classification is the raw contract of the language-understanding collaborator
type Classification struct {
	Intent        string      `json:"intent"`
	Message       string      `json:"message"`
	ExtractedData interface{} `json:"extractedData,omitempty"`
}

// UnmarshalJSON tolerates fields of unexpected type. A non-string intent
// reads as empty and so resolves to unknown; a non-string message is dropped
// and the payload kept.
func (c *Classification) UnmarshalJSON(data []byte) error {
	var raw struct {
		Intent        interface{} `json:"intent"`
		Message       interface{} `json:"message"`
		ExtractedData interface{} `json:"extractedData"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	intentLabel, _ := raw.Intent.(string)
	message, _ := raw.Message.(string)
	*c = Classification{
		Intent:        intentLabel,
		Message:       message,
		ExtractedData: raw.ExtractedData,
	}
	return nil
}

// BillingData is the payload of a billing intent
type BillingData struct {
	Items    []billing.RawItem
	Customer entity.CustomerRef
}

// ReminderData is the payload of a reminder intent. Empty fields were absent.
type ReminderData struct {
	Text string
	Date string
}

// PaymentData is the payload of a payment intent
type PaymentData struct {
	Customer entity.CustomerRef
	Amount   decimal.Decimal
	Mode     entity.PaymentMode
}

// Result is the validated tagged union. Exactly the variant matching Kind is
// set; query and unknown carry none.
type Result struct {
	Kind     Kind
	Message  string
	Billing  *BillingData
	Reminder *ReminderData
	Payment  *PaymentData

	// Degraded holds why a payload was downgraded to unknown, if it was
	Degraded error
}
