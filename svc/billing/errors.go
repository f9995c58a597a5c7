package billing

import "errors"

var (
	ErrInvalidPlan           = errors.New("invalid plan selected")
	ErrInvalidCycle          = errors.New("invalid billing cycle")
	ErrInvalidAddOn          = errors.New("invalid add-on selected")
	ErrProviderNotConfigured = errors.New("billing provider is not configured")

	ErrMissingAPIKey             = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret      = errors.New("billing provider webhook secret is required")
	ErrWebhookVerificationFailed = errors.New("webhook signature verification failed")
	ErrNoCheckoutURL             = errors.New("no checkout URL returned from provider")
	ErrSessionNotSupported       = errors.New("checkout session retrieval not supported by provider")
	ErrInvalidSessionID          = errors.New("invalid checkout session id")
)
