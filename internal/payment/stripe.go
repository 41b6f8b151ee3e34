package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
)

// StripeCheckout creates hosted Stripe checkout sessions with card and Pix
// enabled, the card flavour accepting installments.
type StripeCheckout struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
	Currency   string
}

// NewStripeCheckout wires the package-global Stripe key the way the SDK expects.
func NewStripeCheckout(secretKey, successURL, cancelURL, currency string) *StripeCheckout {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey != "" {
		stripe.Key = secretKey
	}
	return &StripeCheckout{
		SecretKey:  secretKey,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Currency:   currency,
	}
}

// Configured reports whether a secret key is present.
func (s *StripeCheckout) Configured() bool {
	return s != nil && s.SecretKey != ""
}

// Session is the subset of a checkout session handed back to the caller.
type Session struct {
	ID  string
	URL string
}

// CreateSession opens a hosted payment session for one order.
func (s *StripeCheckout) CreateSession(ctx context.Context, orderID string, amount float64, restaurantID, restaurantName string) (Session, error) {
	if !s.Configured() {
		return Session{}, errors.New("stripe client not configured")
	}
	currency := strings.ToLower(strings.TrimSpace(s.Currency))
	if currency == "" {
		currency = "brl"
	}
	cents := int64(math.Round(amount * 100))
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
			"pix",
		}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("Pedido %s - %s", orderID, restaurantName)),
				},
				UnitAmount: stripe.Int64(cents),
			},
			Quantity: stripe.Int64(1),
		}},
		PaymentMethodOptions: &stripe.CheckoutSessionPaymentMethodOptionsParams{
			Card: &stripe.CheckoutSessionPaymentMethodOptionsCardParams{
				Installments: &stripe.CheckoutSessionPaymentMethodOptionsCardInstallmentsParams{
					Enabled: stripe.Bool(true),
				},
			},
		},
		SuccessURL:        stripe.String(s.SuccessURL),
		CancelURL:         stripe.String(s.CancelURL),
		ClientReferenceID: stripe.String(orderID),
		Metadata: map[string]string{
			"pedido_id":        orderID,
			"restaurante_id":   restaurantID,
			"restaurante_nome": restaurantName,
		},
	}
	sess, err := session.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("stripe create session: %w", err)
	}
	return Session{ID: sess.ID, URL: sess.URL}, nil
}
