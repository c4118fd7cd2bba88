package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DeliveryFee is the flat fee added client-side to every cart and order total.
const DeliveryFee Amount = 30

type UserType string

const (
	UserTypeCustomer UserType = "customer"
	UserTypeAdmin    UserType = "admin"
)

// User is the identity returned by login and profile calls. The live session
// is a User with a positive UserID.
type User struct {
	UserID   int64    `json:"user_id"`
	UserType UserType `json:"user_type"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone_number"`
	Address  string   `json:"address"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.UserType == UserTypeAdmin
}

// Amount is a money value. The backend serializes decimals either as JSON
// numbers or as numeric strings, so both are accepted.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		raw = strings.TrimSpace(unquoted)
		if raw == "" {
			*a = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("amount %q: %w", raw, err)
	}
	*a = Amount(v)
	return nil
}

// Round returns the amount rounded to two decimals.
func (a Amount) Round() Amount {
	return Amount(math.Round(float64(a)*100) / 100)
}

// String formats the amount in rupees with two decimals, e.g. "₹270.00".
func (a Amount) String() string {
	return fmt.Sprintf("₹%.2f", float64(a.Round()))
}

type MenuItem struct {
	ItemID       int64  `json:"item_id"`
	Name         string `json:"item_name"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Price        Amount `json:"price"`
	Image        string `json:"image"`
	Availability *bool  `json:"availability,omitempty"`
}

// MenuItemInput is the body of admin add/update calls.
type MenuItemInput struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       Amount `json:"price"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

// CartLine mirrors one server-side cart row. Subtotal is computed by the
// server and is never recomputed on the client.
type CartLine struct {
	ItemID   int64  `json:"item_id"`
	Name     string `json:"name"`
	Price    Amount `json:"price"`
	Quantity int    `json:"quantity"`
	Subtotal Amount `json:"subtotal"`
}

type Cart struct {
	Lines []CartLine `json:"items"`
	Total Amount     `json:"total"`
}

// Subtotal sums the server-provided line subtotals.
func Subtotal(lines []CartLine) Amount {
	var sum Amount
	for _, l := range lines {
		sum += l.Subtotal
	}
	return sum
}

// TotalWithDelivery is Subtotal plus DeliveryFee, rounded to two decimals.
func TotalWithDelivery(lines []CartLine) Amount {
	return (Subtotal(lines) + DeliveryFee).Round()
}

// ItemCount sums line quantities.
func ItemCount(lines []CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

type OrderItem struct {
	ItemID   int64  `json:"item_id"`
	Name     string `json:"item_name"`
	Quantity int    `json:"quantity"`
	Subtotal Amount `json:"subtotal"`
}

type Payment struct {
	Method            string `json:"payment_method"`
	TransactionStatus string `json:"transaction_status"`
}

type Order struct {
	OrderID     int64       `json:"order_id"`
	OrderDate   string      `json:"order_date"`
	TotalPrice  Amount      `json:"total_price"`
	PaymentMode string      `json:"payment_mode"`
	Status      string      `json:"status"`
	Items       []OrderItem `json:"items"`
	Payment     *Payment    `json:"payment,omitempty"`
}

// PaymentMethod prefers the recorded payment over the order's payment mode.
func (o Order) PaymentMethod() string {
	if o.Payment != nil && o.Payment.Method != "" {
		return o.Payment.Method
	}
	return o.PaymentMode
}

// OrderNumber formats an order id the way receipts display it.
func OrderNumber(id int64) string {
	return fmt.Sprintf("#MS%d", id)
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
	PaymentUPI    PaymentMethod = "upi"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentCOD, PaymentOnline, PaymentUPI:
		return m, nil
	case "":
		return PaymentCOD, nil
	default:
		return "", fmt.Errorf("unknown payment method %q", s)
	}
}

func (m PaymentMethod) Label() string {
	switch m {
	case PaymentOnline:
		return "Online Payment"
	case PaymentUPI:
		return "UPI Payment"
	default:
		return "Cash on Delivery"
	}
}

type LoginRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	UserType UserType `json:"userType"`
}

type SignupRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Password string   `json:"password"`
	Address  string   `json:"address"`
	UserType UserType `json:"userType"`
}

type AddCartLineRequest struct {
	UserID   int64 `json:"user_id"`
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

type UpdateCartLineRequest struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

type PlaceOrderRequest struct {
	UserID          int64         `json:"user_id"`
	DeliveryAddress string        `json:"deliveryAddress"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
}

var _ json.Unmarshaler = (*Amount)(nil)
