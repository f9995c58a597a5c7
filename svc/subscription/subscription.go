package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/autodispatchai/platform/svc/billing"
)

// Status is the provider-driven subscription lifecycle state. The service
// never invents statuses; it records what the billing provider reports.
type Status string

const (
	StatusTrialing   Status = "trialing"
	StatusActive     Status = "active"
	StatusPastDue    Status = "past_due"
	StatusCanceled   Status = "canceled"
	StatusIncomplete Status = "incomplete"
	StatusUnpaid     Status = "unpaid"
)

// Entitled reports whether the status grants product access. A trial counts
// the same as a paid subscription.
func (s Status) Entitled() bool {
	return s == StatusTrialing || s == StatusActive
}

// Subscription records a company's billing state, at most one row per
// company. Webhook deliveries arrive out of order and possibly twice;
// checkout writes upsert on the company so replays converge and a
// resubscribe replaces a canceled row, while lifecycle updates address the
// row by ProviderSubID.
type Subscription struct {
	ID               uuid.UUID       `json:"id"`
	CompanyID        uuid.UUID       `json:"company_id"`
	OwnerID          uuid.UUID       `json:"owner_id"`
	CustomerID       string          `json:"stripe_customer_id,omitempty"`
	ProviderSubID    string          `json:"stripe_subscription_id"`
	Plan             billing.Plan    `json:"plan"`
	Cycle            billing.Cycle   `json:"billing_cycle"`
	AddOns           []billing.AddOn `json:"add_ons"`
	Status           Status          `json:"status"`
	TrialEndsAt      *time.Time      `json:"trial_ends_at,omitempty"`
	CurrentPeriodEnd *time.Time      `json:"current_period_end,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// StateChange is a partial update applied to a subscription row from a
// provider lifecycle event. Nil pointers leave the column untouched;
// ClearTrial removes the trial deadline once the provider reports the
// subscription active with no trial remaining.
type StateChange struct {
	Status     Status
	PeriodEnd  *time.Time
	TrialEnd   *time.Time
	ClearTrial bool
}
