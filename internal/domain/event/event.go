package event

import (
	"time"

	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// Payload keys carried by the events published from the services
const (
	KeyInvoice  = "invoice"
	KeyCustomer = "customer"
	KeyReminder = "reminder"
	KeyReplaced = "replaced"
	KeyReason   = "reason"
)

// Event is a caller-visible mutation of conversation or record state
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	SubjectID     string                 `json:"subject_id"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates an event about subjectID starting its own correlation chain
func NewEvent(eventType Type, subjectID string, payload map[string]interface{}) *Event {
	id := uuid.NewString()
	return &Event{
		ID:            id,
		Type:          eventType,
		SubjectID:     subjectID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: id,
	}
}

// NewEventWithCorrelation creates an event belonging to an existing chain,
// usually the conversation that caused it
func NewEventWithCorrelation(eventType Type, subjectID string, payload map[string]interface{}, correlationID string) *Event {
	e := NewEvent(eventType, subjectID, payload)
	e.CorrelationID = correlationID
	return e
}

// WithPayload returns a copy of the event with key set
func (e *Event) WithPayload(key string, value interface{}) *Event {
	payload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	cp := *e
	cp.Payload = payload
	return &cp
}

// GetPayloadString reads a scalar payload value as a string
func (e *Event) GetPayloadString(key string) string {
	switch v := e.Payload[key].(type) {
	case nil, map[string]interface{}, []interface{}:
		return ""
	default:
		return cast.ToString(v)
	}
}

// GetPayloadBool reads a payload flag; absent or unparsable values are false
func (e *Event) GetPayloadBool(key string) bool {
	b, err := cast.ToBoolE(e.Payload[key])
	return err == nil && b
}

// Invoice returns the invoice carried by the event, if any
func (e *Event) Invoice() (*entity.Invoice, bool) {
	inv, ok := e.Payload[KeyInvoice].(*entity.Invoice)
	return inv, ok && inv != nil
}

// Customer returns the customer carried by the event, if any
func (e *Event) Customer() (*entity.Customer, bool) {
	c, ok := e.Payload[KeyCustomer].(*entity.Customer)
	return c, ok && c != nil
}

// Reminder returns the reminder carried by the event, if any
func (e *Event) Reminder() (*entity.Reminder, bool) {
	r, ok := e.Payload[KeyReminder].(*entity.Reminder)
	return r, ok && r != nil
}
