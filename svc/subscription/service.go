package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/autodispatchai/platform/pkg/email"
	"github.com/autodispatchai/platform/svc/auth"
	"github.com/autodispatchai/platform/svc/billing"
	"github.com/autodispatchai/platform/svc/company"
)

// Config holds subscription service configuration.
type Config struct {
	Enabled    bool          `env:"BILLING_ENABLED" envDefault:"true"`
	TrialDays  int64         `env:"TRIAL_PERIOD_DAYS" envDefault:"14"`
	BaseURL    string        `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	DedupTTL   time.Duration `env:"WEBHOOK_DEDUP_TTL" envDefault:"24h"`
	AlertEmail string        `env:"BILLING_ALERT_EMAIL"`
}

// CompanyDirectory resolves billing emails to companies. The customer email
// on a webhook event is the single join key back to an account.
type CompanyDirectory interface {
	FindByEmail(ctx context.Context, email string) (*company.Company, error)
}

// Service owns checkout creation and webhook-driven subscription state.
type Service struct {
	cfg         Config
	prices      billing.PriceTable
	provider    billing.Provider
	store       Store
	companies   CompanyDirectory
	deadLetters DeadLetterStore
	dedup       EventDedup
	mailer      email.Sender
	log         *slog.Logger
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithDeadLetterStore replaces the default in-memory dead-letter store.
func WithDeadLetterStore(store DeadLetterStore) Option {
	return func(s *Service) { s.deadLetters = store }
}

// WithDedup replaces the default in-memory event dedup store.
func WithDedup(dedup EventDedup) Option {
	return func(s *Service) { s.dedup = dedup }
}

// WithMailer enables outgoing email: trial-started notices to the company's
// billing address and dead-letter alerts to Config.AlertEmail.
func WithMailer(sender email.Sender) Option {
	return func(s *Service) { s.mailer = sender }
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService creates the subscription service. Panics on nil required
// dependencies to fail fast during initialization.
func NewService(cfg Config, prices billing.PriceTable, provider billing.Provider, store Store, companies CompanyDirectory, opts ...Option) *Service {
	if provider == nil {
		panic("subscription: billing provider is required")
	}
	if store == nil {
		panic("subscription: store is required")
	}
	if companies == nil {
		panic("subscription: company directory is required")
	}

	s := &Service{
		cfg:         cfg,
		prices:      prices,
		provider:    provider,
		store:       store,
		companies:   companies,
		deadLetters: NewMemoryDeadLetterStore(),
		dedup:       NewMemoryDedup(cfg.DedupTTL),
		log:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckoutInput is the JSON payload for creating a checkout session.
type CheckoutInput struct {
	Plan    billing.Plan    `json:"plan"`
	Billing billing.Cycle   `json:"billing"`
	AddOns  []billing.AddOn `json:"addOns"`
	Email   string          `json:"email"`
}

// CreateCheckout validates the plan selection, resolves prices, and creates
// a hosted checkout session. The selection and the owner's user id travel in
// session metadata so the completion webhook can reconstruct them.
func (s *Service) CreateCheckout(ctx context.Context, sess *auth.Session, in CheckoutInput) (*billing.CheckoutSession, error) {
	if !s.cfg.Enabled {
		return nil, ErrBillingDisabled
	}
	if !in.Plan.Valid() {
		return nil, billing.ErrInvalidPlan
	}
	if !in.Billing.Valid() {
		return nil, billing.ErrInvalidCycle
	}
	for _, a := range in.AddOns {
		if !a.Valid() {
			return nil, billing.ErrInvalidAddOn
		}
	}

	lineItems, err := s.prices.LineItems(in.Plan, in.Billing, in.AddOns)
	if err != nil {
		return nil, err
	}

	addOnNames := make([]string, len(in.AddOns))
	for i, a := range in.AddOns {
		addOnNames[i] = string(a)
	}

	checkoutEmail := strings.ToLower(strings.TrimSpace(in.Email))
	if checkoutEmail == "" {
		checkoutEmail = sess.Email
	}

	session, err := s.provider.CreateCheckoutSession(ctx, billing.CheckoutRequest{
		LineItems:  lineItems,
		Email:      checkoutEmail,
		TrialDays:  s.cfg.TrialDays,
		SuccessURL: s.cfg.BaseURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.BaseURL + "/billing/choose-plan?canceled=1",
		Metadata: map[string]string{
			"user_id": sess.UserID.String(),
			"plan":    string(in.Plan),
			"billing": string(in.Billing),
			"addOns":  strings.Join(addOnNames, ","),
		},
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "checkout session created",
		slog.String("session_id", session.ID),
		slog.String("plan", string(in.Plan)),
		slog.String("billing", string(in.Billing)),
	)
	return session, nil
}

// VerifySession retrieves a checkout session summary for the post-payment
// success page.
func (s *Service) VerifySession(ctx context.Context, id string) (*billing.CheckoutSession, error) {
	if id == "" {
		return nil, ErrMissingSessionID
	}
	return s.provider.GetCheckoutSession(ctx, id)
}

// ForCompany returns the company's subscription or ErrSubscriptionNotFound.
func (s *Service) ForCompany(ctx context.Context, companyID uuid.UUID) (*Subscription, error) {
	return s.store.FindByCompany(ctx, companyID)
}

// HandleWebhook verifies and applies a provider webhook delivery. A
// verification failure is the only error returned; once the event is
// authentic the delivery is acknowledged regardless of what applying it did,
// with any event that failed to apply parked in the dead-letter store for
// the reconciler. Redelivery must never be the recovery path the provider
// eventually gives up on.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}

	seen, err := s.dedup.Seen(ctx, event.ID)
	if err != nil {
		// Dedup store trouble must not reject authentic deliveries; the
		// upsert key keeps a reprocessed event idempotent anyway.
		s.log.ErrorContext(ctx, "event dedup check failed",
			slog.String("event_id", event.ID), slog.Any("error", err))
	} else if seen {
		s.log.InfoContext(ctx, "duplicate event acknowledged",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.ProviderEvent))
		return nil
	}

	if err := s.applyEvent(ctx, event); err != nil {
		s.log.ErrorContext(ctx, "failed to apply webhook event",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.ProviderEvent),
			slog.Any("error", err))
		s.parkEvent(ctx, event, err)
	}
	return nil
}

// applyEvent routes a normalized event to its state transition. It is also
// the replay path for the reconciler.
func (s *Service) applyEvent(ctx context.Context, ev *billing.Event) error {
	switch ev.Type {
	case billing.EventCheckoutCompleted:
		return s.applyCheckoutCompleted(ctx, ev)
	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted:
		return s.applyLifecycle(ctx, ev)
	case billing.EventInvoicePaid, billing.EventInvoicePaymentFailed:
		s.log.InfoContext(ctx, "invoice event received",
			slog.String("event_id", ev.ID),
			slog.String("event_type", ev.ProviderEvent))
		return nil
	default:
		return nil
	}
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, ev *billing.Event) error {
	if ev.CustomerEmail == "" || ev.SubscriptionID == "" {
		s.log.WarnContext(ctx, "checkout event missing email or subscription id, skipped",
			slog.String("event_id", ev.ID))
		return nil
	}

	comp, err := s.companies.FindByEmail(ctx, ev.CustomerEmail)
	if errors.Is(err, company.ErrCompanyNotFound) {
		return fmt.Errorf("%w: email %s", ErrCompanyNotMatched, ev.CustomerEmail)
	}
	if err != nil {
		return fmt.Errorf("failed to look up company by email: %w", err)
	}

	plan, cycle, addOns := selectionFromMetadata(ev.Metadata)
	now := time.Now().UTC()
	trialEnd := now.Add(time.Duration(s.cfg.TrialDays) * 24 * time.Hour)

	sub := &Subscription{
		ID:            uuid.New(),
		CompanyID:     comp.ID,
		OwnerID:       comp.OwnerID,
		CustomerID:    ev.CustomerID,
		ProviderSubID: ev.SubscriptionID,
		Plan:          plan,
		Cycle:         cycle,
		AddOns:        addOns,
		Status:        StatusTrialing,
		TrialEndsAt:   &trialEnd,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("failed to persist subscription %s: %w", ev.SubscriptionID, err)
	}

	s.log.InfoContext(ctx, "subscription started",
		slog.String("company_id", comp.ID.String()),
		slog.String("subscription_id", ev.SubscriptionID),
		slog.String("plan", string(plan)))

	s.sendTrialStarted(ctx, comp, plan, trialEnd)
	return nil
}

// sendTrialStarted emails the company's billing address once checkout
// completion has been persisted. Failures are logged only; the subscription
// is already live.
func (s *Service) sendTrialStarted(ctx context.Context, comp *company.Company, plan billing.Plan, trialEnd time.Time) {
	if s.mailer == nil || comp.Email == "" {
		return
	}
	msg := email.Message{
		To:      comp.Email,
		Subject: "Your trial has started",
		BodyHTML: fmt.Sprintf(
			"<p>Welcome aboard, %s!</p><p>Your <strong>%s</strong> plan trial is active until %s.</p>",
			comp.Name, plan, trialEnd.Format("January 2, 2006"),
		),
		Tag: "trial-started",
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.ErrorContext(ctx, "failed to send trial started email",
			slog.String("company_id", comp.ID.String()), slog.Any("error", err))
	}
}

func (s *Service) applyLifecycle(ctx context.Context, ev *billing.Event) error {
	if ev.SubscriptionID == "" {
		s.log.WarnContext(ctx, "lifecycle event missing subscription id, skipped",
			slog.String("event_id", ev.ID))
		return nil
	}

	status := Status(ev.Status)
	if ev.Type == billing.EventSubscriptionDeleted && status == "" {
		status = StatusCanceled
	}

	change := StateChange{
		Status:     status,
		PeriodEnd:  ev.PeriodEnd,
		TrialEnd:   ev.TrialEnd,
		ClearTrial: status == StatusActive && ev.TrialEnd == nil,
	}
	if err := s.store.UpdateState(ctx, ev.SubscriptionID, change); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "subscription state updated",
		slog.String("subscription_id", ev.SubscriptionID),
		slog.String("status", string(status)))
	return nil
}

// parkEvent records an event that could not be applied, whether the company
// or subscription does not exist yet or persistence itself failed, so the
// reconciler can replay it.
func (s *Service) parkEvent(ctx context.Context, ev *billing.Event, cause error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to encode dead letter payload",
			slog.String("event_id", ev.ID), slog.Any("error", err))
		return
	}

	dl := &DeadLetter{
		ID:            uuid.New(),
		EventID:       ev.ID,
		EventType:     ev.ProviderEvent,
		CustomerEmail: ev.CustomerEmail,
		ProviderSubID: ev.SubscriptionID,
		Payload:       payload,
		Reason:        cause.Error(),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.deadLetters.Save(ctx, dl); err != nil {
		s.log.ErrorContext(ctx, "failed to save dead letter",
			slog.String("event_id", ev.ID), slog.Any("error", err))
		return
	}

	s.log.WarnContext(ctx, "webhook event parked for reconciliation",
		slog.String("event_id", ev.ID),
		slog.String("event_type", ev.ProviderEvent),
		slog.String("reason", dl.Reason))

	s.sendAlert(ctx, dl, "Webhook event could not be applied")
}

func (s *Service) sendAlert(ctx context.Context, dl *DeadLetter, subject string) {
	if s.mailer == nil || s.cfg.AlertEmail == "" {
		return
	}
	msg := email.Message{
		To:      s.cfg.AlertEmail,
		Subject: subject,
		BodyHTML: fmt.Sprintf(
			"<p>Event <strong>%s</strong> (%s) could not be applied.</p><p>Reason: %s</p><p>Customer email: %s<br>Subscription: %s</p>",
			dl.EventID, dl.EventType, dl.Reason, dl.CustomerEmail, dl.ProviderSubID,
		),
		Tag: "billing-alert",
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.ErrorContext(ctx, "failed to send billing alert",
			slog.String("event_id", dl.EventID), slog.Any("error", err))
	}
}

// selectionFromMetadata reconstructs the plan selection carried through
// checkout metadata, falling back to the cheapest defaults when the values
// are absent or mangled.
func selectionFromMetadata(meta map[string]string) (billing.Plan, billing.Cycle, []billing.AddOn) {
	plan := billing.Plan(meta["plan"])
	if !plan.Valid() {
		plan = billing.PlanEssentials
	}
	cycle := billing.Cycle(meta["billing"])
	if !cycle.Valid() {
		cycle = billing.CycleMonthly
	}

	var addOns []billing.AddOn
	for _, raw := range strings.Split(meta["addOns"], ",") {
		a := billing.AddOn(strings.TrimSpace(raw))
		if a.Valid() {
			addOns = append(addOns, a)
		}
	}
	return plan, cycle, addOns
}
