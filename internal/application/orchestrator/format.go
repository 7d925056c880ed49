package orchestrator

import (
	"fmt"
	"strings"

	"github.com/bharatbiz/bizagent/internal/application/service"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLocale groups amounts the Indian way (1,23,456.00)
var DefaultLocale = language.MustParse("en-IN")

// Formatter renders reply text and rupee amounts for a locale
type Formatter struct {
	printer *message.Printer
}

// NewFormatter creates a formatter for tag
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Rupees renders an amount rounded to two places with locale grouping.
// Stored amounts are never rounded.
func (f *Formatter) Rupees(d decimal.Decimal) string {
	return "₹" + f.printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// Draft describes a freshly composed draft
func (f *Formatter) Draft(inv *entity.Invoice) string {
	if inv == nil {
		return MsgNotUnderstood
	}
	return fmt.Sprintf("Draft bill ready: %d item(s), total %s incl. GST %s. Confirm to save it.",
		len(inv.Items), f.Rupees(inv.GrandTotal()), f.Rupees(inv.GSTTotal()))
}

// Reminder describes a scheduled reminder
func (f *Formatter) Reminder(r *entity.Reminder) string {
	return fmt.Sprintf("Reminder set for %s: %s", r.DueDate, r.Text)
}

// Payment describes a recorded payment
func (f *Formatter) Payment(res *service.PaymentResult, amount decimal.Decimal) string {
	who := res.Customer.Name
	if who == "" {
		who = res.Customer.Contact
	}
	if res.Settled == nil {
		return fmt.Sprintf("Recorded %s from %s. No pending invoice found.", f.Rupees(amount), who)
	}
	return fmt.Sprintf("Recorded %s from %s. Invoice %s marked paid.", f.Rupees(amount), who, res.Settled.ID)
}

// Summary describes the dashboard figures
func (f *Formatter) Summary(s *service.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Today's sales: %s. ", f.Rupees(s.TodaySales))
	fmt.Fprintf(&b, "Pending payments: %s across %d invoice(s). ", f.Rupees(s.PendingAmount), s.PendingCount)
	fmt.Fprintf(&b, "Customers: %d. Active reminders: %d.", s.CustomerCount, s.ActiveReminders)
	if s.NextReminder != nil {
		fmt.Fprintf(&b, " Next: %s (%s).", s.NextReminder.Text, s.NextReminder.DueDate)
	}
	return b.String()
}
