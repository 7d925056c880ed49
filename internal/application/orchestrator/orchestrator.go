// Package orchestrator routes each classified utterance of a conversation to
// the record-keeping services and folds the outcome back into the transcript.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/application/service"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/bharatbiz/bizagent/internal/domain/intent"
)

// Replies that do not come from the classifier
const (
	MsgUpstreamFailure = "Sorry, I encountered an error. Please try again."
	MsgNotUnderstood   = "Sorry, I couldn't understand that. Please try again."
	MsgSaveFailed      = "Sorry, I couldn't save that. Please try again."
	MsgNoDraft         = "There is no draft invoice right now."
	MsgInvoiceSpoken   = "Invoice create ho gayi hai."
)

// Reply is the outcome of one turn. Exactly the fields relevant to Intent
// are set.
type Reply struct {
	Intent   intent.Kind            `json:"intent"`
	Message  string                 `json:"message"`
	Draft    *entity.Invoice        `json:"draft,omitempty"`
	Replaced bool                   `json:"replaced,omitempty"`
	Invoice  *entity.Invoice        `json:"invoice,omitempty"`
	Reminder *entity.Reminder       `json:"reminder,omitempty"`
	Payment  *service.PaymentResult `json:"payment,omitempty"`
	Summary  *service.Summary       `json:"summary,omitempty"`
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Orchestrator is shared by all conversations; it holds no conversation state
type Orchestrator struct {
	classifier port.IntentClassifier
	speaker    port.Speaker
	reminders  service.ReminderQueue
	payments   service.PaymentService
	queries    service.QueryService
	format     *Formatter
	logger     Logger
	now        func() time.Time
}

// Option configures the orchestrator
type Option func(*Orchestrator)

// WithClock replaces time.Now for transcript timestamps
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithFormatter replaces the default en-IN formatter
func WithFormatter(f *Formatter) Option {
	return func(o *Orchestrator) {
		o.format = f
	}
}

// New creates an orchestrator. speaker may be nil.
func New(
	classifier port.IntentClassifier,
	speaker port.Speaker,
	reminders service.ReminderQueue,
	payments service.PaymentService,
	queries service.QueryService,
	logger Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		classifier: classifier,
		speaker:    speaker,
		reminders:  reminders,
		payments:   payments,
		queries:    queries,
		format:     NewFormatter(DefaultLocale),
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleMessage resolves one utterance. Blank input is ignored and yields
// nil. If the classifier fails the conversation is left untouched and the
// reply is a generic apology.
func (o *Orchestrator) HandleMessage(ctx context.Context, conv *Conversation, text string) *Reply {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	conv.turn.Lock()
	defer conv.turn.Unlock()

	ctx = service.WithCorrelationID(ctx, conv.ID())

	cls, err := o.classifier.Classify(ctx, text)
	if err != nil || cls == nil {
		o.logger.Error("Intent classification failed", "conversation_id", conv.ID(), "error", err)
		return &Reply{Intent: intent.KindUnknown, Message: MsgUpstreamFailure}
	}

	res := intent.Resolve(*cls)
	if res.Degraded != nil {
		o.logger.Info("Payload degraded to unknown", "conversation_id", conv.ID(), "reason", res.Degraded.Error())
	}

	userMsg := entity.Message{Role: entity.RoleUser, Text: text, At: o.now()}

	reply := o.dispatch(ctx, conv, res, text)

	var data interface{}
	switch {
	case reply.Draft != nil:
		data = reply.Draft
	case reply.Reminder != nil:
		data = reply.Reminder
	case reply.Payment != nil:
		data = reply.Payment
	case reply.Summary != nil:
		data = reply.Summary
	}
	conv.append(userMsg, entity.Message{Role: entity.RoleAgent, Text: reply.Message, Data: data, At: o.now()})

	o.speak(ctx, conv, reply.Message)

	o.logger.Info("Turn handled",
		"conversation_id", conv.ID(),
		"intent", reply.Intent,
		"draft_state", conv.lifecycle.State(),
	)
	return reply
}

func (o *Orchestrator) dispatch(ctx context.Context, conv *Conversation, res intent.Result, utterance string) *Reply {
	reply := &Reply{Intent: res.Kind}

	switch res.Kind {
	case intent.KindBilling:
		draft, replaced := conv.lifecycle.Compose(ctx, res.Billing.Items, res.Billing.Customer)
		reply.Draft = draft
		reply.Replaced = replaced
		reply.Message = firstNonEmpty(res.Message, o.format.Draft(draft))

	case intent.KindReminder:
		text := firstNonEmpty(res.Reminder.Text, utterance)
		r, err := o.reminders.Schedule(ctx, text, res.Reminder.Date)
		if err != nil {
			return &Reply{Intent: res.Kind, Message: MsgSaveFailed}
		}
		reply.Reminder = r
		reply.Message = firstNonEmpty(res.Message, o.format.Reminder(r))

	case intent.KindPayment:
		p := res.Payment
		result, err := o.payments.RecordPayment(ctx, p.Customer, p.Amount, p.Mode)
		if err != nil {
			return &Reply{Intent: res.Kind, Message: MsgSaveFailed}
		}
		reply.Payment = result
		reply.Message = firstNonEmpty(res.Message, o.format.Payment(result, p.Amount))

	case intent.KindQuery:
		sum, err := o.queries.Summary(ctx)
		if err != nil {
			return &Reply{Intent: res.Kind, Message: MsgSaveFailed}
		}
		reply.Summary = sum
		// figures come from the records, not from the classifier
		reply.Message = o.format.Summary(sum)

	default:
		reply.Message = firstNonEmpty(res.Message, MsgNotUnderstood)
	}

	return reply
}

// Confirm finalizes the conversation's draft invoice. Without a draft it is
// a no-op and the transcript is unchanged.
func (o *Orchestrator) Confirm(ctx context.Context, conv *Conversation) *Reply {
	conv.turn.Lock()
	defer conv.turn.Unlock()

	ctx = service.WithCorrelationID(ctx, conv.ID())

	inv, ok, err := conv.lifecycle.Confirm(ctx)
	if err != nil {
		return &Reply{Intent: intent.KindBilling, Message: MsgSaveFailed}
	}
	if !ok {
		return &Reply{Intent: intent.KindBilling, Message: MsgNoDraft}
	}

	msg := fmt.Sprintf("Invoice %s has been created successfully!", inv.ID)
	conv.append(entity.Message{Role: entity.RoleAgent, Text: msg, Data: inv, At: o.now()})
	o.speak(ctx, conv, MsgInvoiceSpoken)

	return &Reply{Intent: intent.KindBilling, Message: msg, Invoice: inv}
}

// Discard drops the conversation's draft invoice. Without a draft it is a
// no-op and the transcript is unchanged.
func (o *Orchestrator) Discard(ctx context.Context, conv *Conversation) *Reply {
	conv.turn.Lock()
	defer conv.turn.Unlock()

	ctx = service.WithCorrelationID(ctx, conv.ID())

	dropped, ok := conv.lifecycle.Discard(ctx)
	if !ok {
		return &Reply{Intent: intent.KindBilling, Message: MsgNoDraft}
	}

	msg := fmt.Sprintf("Draft invoice %s discarded.", dropped.ID)
	conv.append(entity.Message{Role: entity.RoleAgent, Text: msg, At: o.now()})

	return &Reply{Intent: intent.KindBilling, Message: msg}
}

// speak is best effort
func (o *Orchestrator) speak(ctx context.Context, conv *Conversation, text string) {
	if o.speaker == nil || !conv.VoiceEnabled() || text == "" {
		return
	}
	if err := o.speaker.Speak(ctx, text); err != nil {
		o.logger.Info("Speech failed", "conversation_id", conv.ID(), "error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
