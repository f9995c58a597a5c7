package subscription

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/autodispatchai/platform/pkg/pg"
	"github.com/autodispatchai/platform/svc/billing"
)

// PgStore is the Postgres-backed subscription store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a Postgres subscription store. Panics on nil pool to
// fail fast during initialization.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	if pool == nil {
		panic("subscription: pgx pool is required")
	}
	return &PgStore{pool: pool}
}

const subscriptionColumns = `id, company_id, owner_id, stripe_customer_id,
	stripe_subscription_id, plan, billing_cycle, add_ons, status,
	trial_ends_at, current_period_end, created_at, updated_at`

func addOnsToStrings(addOns []billing.AddOn) []string {
	out := make([]string, len(addOns))
	for i, a := range addOns {
		out[i] = string(a)
	}
	return out
}

func stringsToAddOns(values []string) []billing.AddOn {
	out := make([]billing.AddOn, len(values))
	for i, v := range values {
		out[i] = billing.AddOn(v)
	}
	return out
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var sub Subscription
	var addOns []string
	err := row.Scan(
		&sub.ID, &sub.CompanyID, &sub.OwnerID, &sub.CustomerID,
		&sub.ProviderSubID, &sub.Plan, &sub.Cycle, &addOns, &sub.Status,
		&sub.TrialEndsAt, &sub.CurrentPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.AddOns = stringsToAddOns(addOns)
	return &sub, nil
}

// Upsert conflicts on company_id: a redelivered checkout event converges on
// the same row, and a resubscribe after cancellation replaces the canceled
// row with the new provider subscription id.
func (s *PgStore) Upsert(ctx context.Context, sub *Subscription) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (company_id) DO UPDATE SET
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			stripe_customer_id     = EXCLUDED.stripe_customer_id,
			plan                   = EXCLUDED.plan,
			billing_cycle          = EXCLUDED.billing_cycle,
			add_ons                = EXCLUDED.add_ons,
			status                 = EXCLUDED.status,
			trial_ends_at          = EXCLUDED.trial_ends_at,
			current_period_end     = EXCLUDED.current_period_end,
			updated_at             = EXCLUDED.updated_at`,
		sub.ID, sub.CompanyID, sub.OwnerID, sub.CustomerID,
		sub.ProviderSubID, sub.Plan, sub.Cycle, addOnsToStrings(sub.AddOns),
		sub.Status, sub.TrialEndsAt, sub.CurrentPeriodEnd,
		sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

func (s *PgStore) UpdateState(ctx context.Context, providerSubID string, change StateChange) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE subscriptions SET
			status             = $2,
			current_period_end = COALESCE($3, current_period_end),
			trial_ends_at      = CASE WHEN $5 THEN NULL ELSE COALESCE($4, trial_ends_at) END,
			updated_at         = now()
		WHERE stripe_subscription_id = $1`,
		providerSubID, change.Status, change.PeriodEnd, change.TrialEnd, change.ClearTrial,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (s *PgStore) FindByProviderID(ctx context.Context, providerSubID string) (*Subscription, error) {
	sub, err := scanSubscription(s.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE stripe_subscription_id = $1`,
		providerSubID,
	))
	if pg.IsNotFoundError(err) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription by provider id: %w", err)
	}
	return sub, nil
}

func (s *PgStore) FindByCompany(ctx context.Context, companyID uuid.UUID) (*Subscription, error) {
	sub, err := scanSubscription(s.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE company_id = $1`,
		companyID,
	))
	if pg.IsNotFoundError(err) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription by company: %w", err)
	}
	return sub, nil
}
