// Package subscription turns provider webhook events into durable
// subscription state and exposes the checkout API.
//
// Webhook deliveries are verified, de-duplicated by event id, and applied
// through upserts keyed by the provider subscription id, so out-of-order and
// repeated deliveries converge on the same row. Events that cannot be
// matched to a company are parked in a dead-letter store and replayed by the
// Reconciler instead of being dropped.
package subscription
