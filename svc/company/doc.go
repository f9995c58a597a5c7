// Package company manages carrier company profiles created during
// onboarding. One company per account; the billing email is unique across
// companies because it links provider webhook events back to the account.
package company
