// Package payment wraps the Stripe payment intents API.
package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
)

// StatusSucceeded is the only intent status that authorizes an order.
const StatusSucceeded = string(stripe.PaymentIntentStatusSucceeded)

// Intent is the part of a payment intent the LMS cares about.
type Intent struct {
	ID           string
	Status       string
	ClientSecret string
}

type intentAPI interface {
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Stripe is the payment gateway.
type Stripe struct {
	api            intentAPI
	publishableKey string
}

// NewStripe returns a gateway using the given secret key.
func NewStripe(secretKey, publishableKey string) *Stripe {
	backends := stripe.NewBackends(nil)
	return &Stripe{
		api:            &paymentintent.Client{B: backends.API, Key: secretKey},
		publishableKey: publishableKey,
	}
}

// PublishableKey is handed to the browser for Stripe.js.
func (s *Stripe) PublishableKey() string { return s.publishableKey }

// PaymentStatus returns the status of an existing intent.
func (s *Stripe) PaymentStatus(ctx context.Context, intentID string) (string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.api.Get(intentID, params)
	if err != nil {
		return "", fmt.Errorf("stripe: get intent %s: %w", intentID, err)
	}
	return string(pi.Status), nil
}

// CreateIntent opens a USD intent for amount (in cents) with automatic
// payment methods.
func (s *Stripe) CreateIntent(ctx context.Context, amount int64) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("company", "LMS")
	pi, err := s.api.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("stripe: create intent: %w", err)
	}
	return Intent{ID: pi.ID, Status: string(pi.Status), ClientSecret: pi.ClientSecret}, nil
}
