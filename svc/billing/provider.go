package billing

import "context"

// Provider is the minimal payment-provider abstraction. It keeps the rest of
// the platform vendor-neutral: Stripe is the default, Paddle is supported,
// and all provider quirks (signature schemes, payload shapes) stay inside
// the implementation.
type Provider interface {
	// CreateCheckoutSession creates a hosted checkout session and returns
	// it with the URL the end user's browser should be redirected to.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// GetCheckoutSession retrieves a checkout session with its line items
	// for post-payment verification pages.
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)

	// ParseWebhook verifies the payload signature and returns the
	// normalized event. A signature failure must return
	// ErrWebhookVerificationFailed and no event.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error)
}
