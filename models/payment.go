package models

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v74"
	"github.com/thedevsaddam/govalidator"
)

const (
	DefaultCurrency = "usd"

	// MaxAmountMinorUnits is the largest amount Stripe accepts (999999.99).
	MaxAmountMinorUnits = 99999999
)

// Amount is a major-unit amount (12.34) that accepts JSON numbers as well
// as numeric strings, since url-encoded forms only carry strings.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.Errorf("amount must be numeric, got %s", s)
	}
	*a = Amount(f)
	return nil
}

// Valid reports whether the amount is finite, positive and within what
// Stripe accepts once converted to minor units.
func (a Amount) Valid() bool {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return false
	}
	return math.Round(f*100) <= MaxAmountMinorUnits
}

// MinorUnits converts to the integer amount Stripe expects (cents).
func (a Amount) MinorUnits() int64 {
	return int64(math.Round(float64(a) * 100))
}

type PaymentMetadata struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CreatePaymentIntentOpts struct {
	Amount      Amount          `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	Metadata    PaymentMetadata `json:"metadata"`
}

// govalidator's required rule panics on named numeric types, so missing
// amounts are left to Amount.Valid.
var CreatePaymentIntentRules = govalidator.MapData{
	"amount": []string{"positive_amount"},
}

const InvalidAmountMessage = "The amount field must be a positive number no greater than 999999.99"

type CreatePaymentIntentResponse struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
}

type ProcessPaymentOpts struct {
	ReaderID        string `json:"readerId"`
	PaymentIntentID string `json:"paymentIntentId"`
}

var ProcessPaymentRules = govalidator.MapData{
	"readerId":        []string{"required"},
	"paymentIntentId": []string{"required"},
}

type CancelPaymentIntentOpts struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ReaderID        string `json:"readerId"`
}

var CancelPaymentIntentRules = govalidator.MapData{
	"paymentIntentId": []string{"required"},
	"readerId":        []string{"required"},
}

type CancelPaymentIntentResponse struct {
	Message         string                 `json:"message"`
	Status          string                 `json:"status,omitempty"`
	Reader          *stripe.TerminalReader `json:"reader,omitempty"`
	CancelledIntent *stripe.PaymentIntent  `json:"cancelledIntent"`
}

type PaymentIntentConflict struct {
	Error         string                `json:"error"`
	PaymentIntent *stripe.PaymentIntent `json:"paymentIntent"`
}

type GetPaymentIntentStatusOpts struct {
	ID string `schema:"id"`
}

type PaymentIntentStatus struct {
	Status stripe.PaymentIntentStatus `json:"status"`
}
