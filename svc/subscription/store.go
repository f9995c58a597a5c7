package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Store defines subscription persistence. A company holds at most one
// subscription row, so checkout-driven writes upsert on CompanyID; a
// resubscribe after cancellation replaces the canceled row. ProviderSubID
// stays unique for lifecycle lookups.
type Store interface {
	// Upsert inserts the subscription or, when the company already has a
	// row, overwrites its mutable state including the provider subscription
	// id. The row id and creation time of an existing row are kept.
	Upsert(ctx context.Context, sub *Subscription) error

	// UpdateState applies a partial state change to the row with the given
	// provider subscription id. Returns ErrSubscriptionNotFound when no such
	// row exists.
	UpdateState(ctx context.Context, providerSubID string, change StateChange) error

	// FindByProviderID returns the subscription with the given provider id
	// or ErrSubscriptionNotFound.
	FindByProviderID(ctx context.Context, providerSubID string) (*Subscription, error)

	// FindByCompany returns the company's subscription or
	// ErrSubscriptionNotFound.
	FindByCompany(ctx context.Context, companyID uuid.UUID) (*Subscription, error)
}
