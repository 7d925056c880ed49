package service

import (
	"context"

	"github.com/bharatbiz/bizagent/internal/application/dispatcher"
	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/domain/event"
)

// JournalHandlerName is the subscriber name used by RegisterJournal
const JournalHandlerName = "event-journal"

// journaledTypes are the caller-visible mutation points written to the journal
var journaledTypes = []event.Type{
	event.TypeDraftSet,
	event.TypeDraftCleared,
	event.TypeInvoiceFinalized,
	event.TypeInvoicePaid,
	event.TypeCustomerUpserted,
	event.TypeReminderCreated,
	event.TypeReminderCompleted,
}

// RegisterJournal subscribes log to every mutation event
func RegisterJournal(d dispatcher.Dispatcher, log port.EventLog) {
	handler := func(ctx context.Context, evt *event.Event) error {
		return log.Append(ctx, evt)
	}
	for _, t := range journaledTypes {
		d.SubscribeNamed(t, JournalHandlerName, handler)
	}
}
