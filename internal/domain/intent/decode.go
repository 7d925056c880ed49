package intent

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/bharatbiz/bizagent/internal/domain/billing"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)

// Bounds on extracted quantities and prices. Anything outside is unusable.
const (
	maxNumberLength = 64
	maxExponent     = 18
)

var maxMagnitude = decimal.New(1, 12)

// Resolve validates a raw classification. It never fails: payloads that
// cannot serve their intent degrade to KindUnknown with Degraded set.
func Resolve(c Classification) Result {
	res := Result{
		Kind:    ParseKind(c.Intent),
		Message: strings.TrimSpace(c.Message),
	}

	switch res.Kind {
	case KindBilling:
		data, err := decodeBilling(c.ExtractedData)
		if err != nil {
			return degrade(res, err)
		}
		res.Billing = data
	case KindReminder:
		res.Reminder = decodeReminder(c.ExtractedData)
	case KindPayment:
		data, err := decodePayment(c.ExtractedData)
		if err != nil {
			return degrade(res, err)
		}
		res.Payment = data
	}

	return res
}

func degrade(res Result, err error) Result {
	return Result{
		Kind:     KindUnknown,
		Message:  res.Message,
		Degraded: fmt.Errorf("%s: %w", res.Kind, err),
	}
}

func decodeBilling(raw interface{}) (*BillingData, error) {
	data := &BillingData{}

	var rawItems []interface{}
	switch v := raw.(type) {
	case []interface{}:
		rawItems = v
	case map[string]interface{}:
		if items, ok := lookup(v, "items", "products").([]interface{}); ok {
			rawItems = items
			data.Customer = customerFrom(v)
		} else {
			rawItems = []interface{}{v}
		}
	default:
		return nil, fmt.Errorf("%w: expected item list, got %T", ErrMalformedPayload, raw)
	}

	for _, r := range rawItems {
		m, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		name := toString(lookup(m, "name", "item", "product"))
		if name == "" {
			continue
		}
		data.Items = append(data.Items, billing.RawItem{
			Name:     name,
			Quantity: toDecimal(lookup(m, "quantity", "qty")),
			Unit:     toString(lookup(m, "unit")),
			Price:    toDecimal(lookup(m, "price", "rate")),
		})
	}

	if len(data.Items) == 0 {
		return nil, fmt.Errorf("%w: no usable items", ErrMalformedPayload)
	}
	return data, nil
}

func decodeReminder(raw interface{}) *ReminderData {
	m, _ := raw.(map[string]interface{})
	return &ReminderData{
		Text: toString(lookup(m, "text", "task")),
		Date: toString(lookup(m, "date", "dueDate", "due")),
	}
}

func decodePayment(raw interface{}) (*PaymentData, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: expected object, got %T", ErrMalformedPayload, raw)
	}

	ref := customerFrom(m)
	if ref.IsZero() {
		return nil, fmt.Errorf("%w: payment without customer", ErrMalformedPayload)
	}

	amount := toDecimal(lookup(m, "amount"))
	if amount.IsNegative() {
		amount = decimal.Zero
	}

	return &PaymentData{
		Customer: ref,
		Amount:   amount,
		Mode:     entity.ParsePaymentMode(toString(lookup(m, "mode"))),
	}, nil
}

// customerFrom reads a customer given either as a string or as an object
func customerFrom(m map[string]interface{}) entity.CustomerRef {
	var ref entity.CustomerRef
	switch c := lookup(m, "customer", "customerName").(type) {
	case map[string]interface{}:
		ref.Name = toString(lookup(c, "name"))
		ref.Contact = toString(lookup(c, "mobile", "phone", "contact"))
	default:
		ref = ParseCustomerRef(toString(c))
	}
	if contact := toString(lookup(m, "mobile", "phone", "contact")); contact != "" {
		ref.Contact = contact
	}
	return ref
}

// ParseCustomerRef treats phone-number-like strings as a contact handle and
// anything else as a name
func ParseCustomerRef(s string) entity.CustomerRef {
	s = strings.TrimSpace(s)
	if s == "" {
		return entity.CustomerRef{}
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == '-' || r == ' ':
		default:
			return entity.CustomerRef{Name: s}
		}
	}
	if digits >= 6 {
		return entity.CustomerRef{Contact: s}
	}
	return entity.CustomerRef{Name: s}
}

// lookup returns the first present key, matching keys case-insensitively
func lookup(m map[string]interface{}, keys ...string) interface{} {
	if m == nil {
		return nil
	}
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	for _, k := range keys {
		for mk, v := range m {
			if v != nil && strings.EqualFold(mk, k) {
				return v
			}
		}
	}
	return nil
}

func toString(v interface{}) string {
	switch v.(type) {
	case nil, map[string]interface{}, []interface{}:
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// toDecimal reads numbers, numeric strings and strings with a leading number
// ("2kg", "₹120" is not one). Unusable or out of range input is zero.
func toDecimal(v interface{}) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case string:
		s := strings.TrimSpace(x)
		s = strings.TrimPrefix(s, "₹")
		s = strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "rs."), "rs")
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if len(s) > maxNumberLength {
			return decimal.Zero
		}
		if d, err := decimal.NewFromString(s); err == nil {
			return bounded(d)
		}
		if m := leadingNumber.FindString(s); m != "" {
			if d, err := decimal.NewFromString(m); err == nil {
				return bounded(d)
			}
		}
		return decimal.Zero
	case bool:
		return decimal.Zero
	default:
		f, err := cast.ToFloat64E(x)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero
		}
		return bounded(decimal.NewFromFloat(f))
	}
}

// bounded checks the exponent before comparing magnitudes, since comparing
// rescales both operands to a common exponent
func bounded(d decimal.Decimal) decimal.Decimal {
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero
	}
	if d.Abs().GreaterThanOrEqual(maxMagnitude) {
		return decimal.Zero
	}
	return d
}
