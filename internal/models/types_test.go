package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Amount
	}{
		{name: "number", input: `150`, want: 150},
		{name: "decimal string", input: `"90.50"`, want: 90.5},
		{name: "null", input: `null`, want: 0},
		{name: "empty string", input: `""`, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Amount
			require.NoError(t, json.Unmarshal([]byte(tt.input), &a))
			assert.Equal(t, tt.want, a)
		})
	}

	var a Amount
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &a))
}

func TestCartLineDecodesServerRow(t *testing.T) {
	raw := `{"cart_id":3,"item_id":5,"name":"Gobi Manchurian","price":"150.00","quantity":2,"subtotal":"300.00"}`
	var line CartLine
	require.NoError(t, json.Unmarshal([]byte(raw), &line))
	assert.Equal(t, int64(5), line.ItemID)
	assert.Equal(t, Amount(300), line.Subtotal)
	assert.Equal(t, 2, line.Quantity)
}

func TestTotals(t *testing.T) {
	lines := []CartLine{
		{ItemID: 1, Quantity: 1, Subtotal: 150},
		{ItemID: 2, Quantity: 3, Subtotal: 90},
	}
	assert.Equal(t, Amount(240), Subtotal(lines))
	assert.Equal(t, "₹270.00", TotalWithDelivery(lines).String())
	assert.Equal(t, 4, ItemCount(lines))
	assert.Equal(t, "₹30.00", TotalWithDelivery(nil).String())
}

func TestTotalsTrustServerSubtotal(t *testing.T) {
	// A promotional subtotal that differs from price*quantity is kept as is.
	lines := []CartLine{{ItemID: 1, Price: 100, Quantity: 2, Subtotal: 175.25}}
	assert.Equal(t, "₹205.25", TotalWithDelivery(lines).String())
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod("")
	require.NoError(t, err)
	assert.Equal(t, PaymentCOD, m)

	m, err = ParsePaymentMethod(" UPI ")
	require.NoError(t, err)
	assert.Equal(t, PaymentUPI, m)
	assert.Equal(t, "UPI Payment", m.Label())
	assert.Equal(t, "Online Payment", PaymentOnline.Label())
	assert.Equal(t, "Cash on Delivery", PaymentCOD.Label())

	_, err = ParsePaymentMethod("card")
	assert.Error(t, err)
}

func TestOrderPaymentMethod(t *testing.T) {
	o := Order{PaymentMode: "cod"}
	assert.Equal(t, "cod", o.PaymentMethod())
	o.Payment = &Payment{Method: "upi"}
	assert.Equal(t, "upi", o.PaymentMethod())
	assert.Equal(t, "#MS42", OrderNumber(42))
}

func TestParseUser(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantID  int64
		wantErr bool
	}{
		{name: "snake case", input: `{"user_id":7,"user_type":"admin","name":"A","phone_number":"1"}`, wantID: 7},
		{name: "camel case", input: `{"userId":"12","userType":"customer"}`, wantID: 12},
		{name: "empty object", input: `{}`, wantErr: true},
		{name: "null id", input: `{"user_id":null}`, wantErr: true},
		{name: "zero id", input: `{"user_id":0}`, wantErr: true},
		{name: "fractional id", input: `{"user_id":1.5}`, wantErr: true},
		{name: "not json", input: `{user`, wantErr: true},
		{name: "array", input: `[1]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ParseUser([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, u.UserID)
		})
	}

	u, err := ParseUser([]byte(`{"user_id":7,"user_type":"admin","phone_number":"555"}`))
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
	assert.Equal(t, "555", u.Phone)

	_, err = ParseUser([]byte(`{"user_id":null}`))
	assert.True(t, errors.Is(err, ErrNoIdentity))
}
