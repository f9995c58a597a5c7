// Package billing resolves plan and add-on selections into priced checkout
// sessions and normalizes provider webhook events.
//
// Price identifiers live in an injected PriceTable; a request selecting a
// price that is not configured fails with *MissingPriceError before any
// provider call is made. Providers (Stripe, Paddle) implement the Provider
// interface and translate their wire formats into the package's normalized
// CheckoutSession and Event types, so the subscription service never sees
// provider-specific payloads.
package billing
