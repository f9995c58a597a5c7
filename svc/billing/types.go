package billing

import "time"

// Plan identifies a subscription tier. The set is closed; anything else is a
// client error.
type Plan string

const (
	PlanEssentials Plan = "ESSENTIALS"
	PlanPro        Plan = "PRO"
)

// Valid reports whether the plan is one of the supported tiers.
func (p Plan) Valid() bool {
	return p == PlanEssentials || p == PlanPro
}

// Cycle is the billing frequency.
type Cycle string

const (
	CycleMonthly Cycle = "monthly"
	CycleYearly  Cycle = "yearly"
)

func (c Cycle) Valid() bool {
	return c == CycleMonthly || c == CycleYearly
}

// AddOn identifies an optional dispatcher capability sold on top of a plan.
type AddOn string

const (
	AddOnCity       AddOn = "city"
	AddOnHighway    AddOn = "highway"
	AddOnBestFinder AddOn = "bestfinder"
	AddOnSafety     AddOn = "safety"
	AddOnCB         AddOn = "cb"
	AddOnVoice      AddOn = "voice"
	AddOnAgent      AddOn = "agent"
	AddOnPay        AddOn = "pay"
	AddOnScore      AddOn = "score"
)

// AllAddOns lists every sellable add-on.
func AllAddOns() []AddOn {
	return []AddOn{
		AddOnCity, AddOnHighway, AddOnBestFinder, AddOnSafety,
		AddOnCB, AddOnVoice, AddOnAgent, AddOnPay, AddOnScore,
	}
}

func (a AddOn) Valid() bool {
	for _, known := range AllAddOns() {
		if a == known {
			return true
		}
	}
	return false
}

// LineItem is a priced entry in a checkout session, quantity 1 for both
// plans and add-ons.
type LineItem struct {
	PriceID  string
	Quantity int64
}

// CheckoutRequest is the provider-agnostic input for creating a hosted
// checkout session. Price resolution has already happened; the provider only
// sees opaque price identifiers.
type CheckoutRequest struct {
	LineItems  []LineItem
	Email      string // pre-fills the billing email when known
	TrialDays  int64
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string // round-tripped back on webhook events
}

// CheckoutSession is a normalized view of a provider checkout session.
type CheckoutSession struct {
	ID             string
	URL            string // hosted checkout URL, empty once completed
	Status         string
	PaymentStatus  string
	CustomerEmail  string
	CustomerID     string
	SubscriptionID string
	Currency       string
	AmountTotal    int64
	LineItems      []SessionLineItem
}

// SessionLineItem is a single purchased item in a checkout session summary.
type SessionLineItem struct {
	Description string `json:"description"`
	PriceID     string `json:"price_id"`
	Interval    string `json:"interval"`
	UnitAmount  int64  `json:"unit_amount"`
	Quantity    int64  `json:"quantity"`
}

// EventType is the normalized billing event type. Provider implementations
// map their specific event names onto these.
type EventType string

const (
	EventCheckoutCompleted    EventType = "checkout_completed"
	EventSubscriptionCreated  EventType = "subscription_created"
	EventSubscriptionUpdated  EventType = "subscription_updated"
	EventSubscriptionDeleted  EventType = "subscription_deleted"
	EventInvoicePaid          EventType = "invoice_paid"
	EventInvoicePaymentFailed EventType = "invoice_payment_failed"
	EventIgnored              EventType = "ignored"
)

// Event is a verified, normalized webhook event.
type Event struct {
	ID             string // provider event id, used for de-duplication
	Type           EventType
	ProviderEvent  string // original provider event name
	CustomerEmail  string
	CustomerID     string
	SubscriptionID string
	Status         string
	TrialEnd       *time.Time
	PeriodEnd      *time.Time
	Metadata       map[string]string
}
