// Package payment wraps the Stripe API calls used for course checkout.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Webhook event types handled by the enrollment flow.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

// Checkout session metadata keys.
const (
	MetadataUserID       = "userId"
	MetadataCourseID     = "courseId"
	MetadataEnrollmentID = "enrollmentId"
)

var (
	ErrMissingSignature = errors.New("missing stripe signature")
	ErrInvalidSignature = errors.New("invalid stripe signature")
	// ErrMalformedEvent marks a verified event whose checkout session could not be decoded.
	ErrMalformedEvent = errors.New("malformed stripe event")
)

// ProviderError carries a provider-side failure with a message safe to show users.
type ProviderError struct {
	Message string
	Err     error
}

func (e *ProviderError) Error() string { return "stripe: " + e.Message }

func (e *ProviderError) Unwrap() error { return e.Err }

// ProductInput describes the catalog product created for a course.
type ProductInput struct {
	Name        string
	Description string
	UnitAmount  int64
}

// CustomerInput identifies the user a provider customer is created for.
type CustomerInput struct {
	UserID string
	Email  string
	Name   string
}

// CheckoutInput describes a one-off payment session.
type CheckoutInput struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	ExpiresAt  time.Time
	Metadata   map[string]string
}

// CheckoutSession is the subset of a provider session used by callers.
type CheckoutSession struct {
	ID  string
	URL string
}

// SessionPayload is the checkout session embedded in a webhook event.
type SessionPayload struct {
	ID          string            `json:"id"`
	Metadata    map[string]string `json:"metadata"`
	AmountTotal *int64            `json:"amount_total"`
}

// Event is a verified webhook event.
type Event struct {
	ID      string
	Type    string
	Session SessionPayload
}

// StripeGateway talks to Stripe through an explicitly constructed API client.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	currency      string
}

// NewStripeGateway builds a gateway for the given credentials.
func NewStripeGateway(secretKey, webhookSecret, currency string) *StripeGateway {
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeGateway{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
		currency:      strings.ToLower(currency),
	}
}

// CreateProduct creates a product with a default price and returns the price ID.
func (g *StripeGateway) CreateProduct(ctx context.Context, in ProductInput) (string, error) {
	params := &stripe.ProductParams{
		Name:        stripe.String(in.Name),
		Description: stripe.String(in.Description),
		DefaultPriceData: &stripe.ProductDefaultPriceDataParams{
			Currency:   stripe.String(g.currency),
			UnitAmount: stripe.Int64(in.UnitAmount),
		},
	}
	params.Context = ctx

	product, err := g.api.Products.New(params)
	if err != nil {
		return "", providerError(err)
	}
	if product.DefaultPrice == nil || product.DefaultPrice.ID == "" {
		return "", &ProviderError{Message: "product created without a default price"}
	}
	return product.DefaultPrice.ID, nil
}

// CreateCustomer registers the user with the provider and returns the customer ID.
func (g *StripeGateway) CreateCustomer(ctx context.Context, in CustomerInput) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(in.Email),
		Name:  stripe.String(in.Name),
	}
	params.Context = ctx
	params.AddMetadata(MetadataUserID, in.UserID)

	customer, err := g.api.Customers.New(params)
	if err != nil {
		return "", providerError(err)
	}
	return customer.ID, nil
}

// CustomerExists reports whether a stored customer ID still refers to a live customer.
func (g *StripeGateway) CustomerExists(ctx context.Context, customerID string) (bool, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	customer, err := g.api.Customers.Get(customerID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return false, nil
		}
		return false, providerError(err)
	}
	return !customer.Deleted, nil
}

// CreateCheckoutSession opens a payment-mode session for a single price.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(in.CustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(in.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
	}
	if !in.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(in.ExpiresAt.Unix())
	}
	params.Context = ctx
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return CheckoutSession{}, providerError(err)
	}
	return CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// ParseWebhook verifies the signature header and decodes checkout session events.
// A verified event with an undecodable session is returned together with an
// ErrMalformedEvent error so callers can still identify it.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (Event, error) {
	if signature == "" {
		return Event{}, ErrMissingSignature
	}
	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := Event{ID: evt.ID, Type: string(evt.Type)}
	if out.Type == EventCheckoutCompleted || out.Type == EventCheckoutExpired {
		if evt.Data == nil || len(evt.Data.Raw) == 0 {
			return out, fmt.Errorf("%w: %s has no data", ErrMalformedEvent, out.Type)
		}
		if err := json.Unmarshal(evt.Data.Raw, &out.Session); err != nil {
			return out, fmt.Errorf("%w: decode %s: %v", ErrMalformedEvent, out.Type, err)
		}
	}
	return out, nil
}

func providerError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return &ProviderError{Message: stripeErr.Msg, Err: err}
	}
	return &ProviderError{Message: err.Error(), Err: err}
}
