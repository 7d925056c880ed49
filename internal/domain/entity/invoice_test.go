package entity

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineItem_Amounts(t *testing.T) {
	item := LineItem{ProductID: "1", Name: "rice", Quantity: d("2"), Unit: "kg", PricePerUnit: d("120"), GSTRate: d("0.05")}

	assert.True(t, item.Subtotal().Equal(d("240")))
	assert.True(t, item.Tax().Equal(d("12")))
	assert.True(t, item.Total().Equal(d("252")))
	assert.Equal(t, "252.00", Display(item.Total()))
	assert.False(t, item.IsManual())
}

func TestInvoice_TotalsIdentity(t *testing.T) {
	inv := &Invoice{Items: []LineItem{
		{Quantity: d("2"), PricePerUnit: d("120"), GSTRate: d("0.05")},
		{Quantity: d("1"), PricePerUnit: d("35"), GSTRate: d("0.18")},
		{Quantity: d("0.333"), PricePerUnit: d("19.99"), GSTRate: d("0.28")},
	}}

	assert.True(t, inv.GrandTotal().Equal(inv.SubTotal().Add(inv.GSTTotal())))
	assert.True(t, inv.SubTotal().Equal(d("281.65667")))
	assert.True(t, inv.GSTTotal().Equal(d("20.1638676")))
}

func TestInvoice_Clone(t *testing.T) {
	inv := &Invoice{ID: "INV-1", Items: []LineItem{{Name: "rice", Quantity: d("1")}}}
	cp := inv.Clone()
	cp.Items[0].Name = "changed"

	assert.Equal(t, "rice", inv.Items[0].Name)
	assert.Nil(t, (*Invoice)(nil).Clone())
}

func TestInvoice_MarshalJSON(t *testing.T) {
	inv := &Invoice{
		ID:            "INV-1",
		PaymentStatus: PaymentPending,
		Items:         []LineItem{{Name: "rice", Quantity: d("2"), PricePerUnit: d("120"), GSTRate: d("0.05")}},
	}

	raw, err := json.Marshal(inv)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "240", out["sub_total"])
	assert.Equal(t, "12", out["gst_total"])
	assert.Equal(t, "252", out["grand_total"])

	items := out["items"].([]interface{})
	assert.Equal(t, "252", items[0].(map[string]interface{})["total"])
}

func TestParsePaymentMode(t *testing.T) {
	tests := []struct {
		in   string
		want PaymentMode
	}{
		{"UPI", PaymentModeUPI},
		{" gpay ", PaymentModeUPI},
		{"cash", PaymentModeCash},
		{"Card", PaymentModeCard},
		{"cheque", PaymentModeNone},
		{"", PaymentModeNone},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePaymentMode(tt.in))
		})
	}
}

func TestCustomer_Matches(t *testing.T) {
	c := &Customer{Name: "Rahul Sharma", Contact: "9876543210"}

	assert.True(t, c.Matches(CustomerRef{Name: "rahul sharma"}))
	assert.True(t, c.Matches(CustomerRef{Contact: "9876543210"}))
	assert.True(t, c.Matches(CustomerRef{Name: "someone else", Contact: "9876543210"}))
	assert.False(t, c.Matches(CustomerRef{Name: "Rahul"}))
	assert.False(t, c.Matches(CustomerRef{}))
}
