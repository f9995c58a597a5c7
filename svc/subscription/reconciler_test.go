package subscription_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autodispatchai/platform/pkg/email"
	"github.com/autodispatchai/platform/svc/company"
	"github.com/autodispatchai/platform/svc/subscription"
)

// recordingSender captures alert emails.
type recordingSender struct {
	mu   sync.Mutex
	sent []email.Message
}

func (s *recordingSender) Send(ctx context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) messages() []email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]email.Message{}, s.sent...)
}

func reconcilerConfig() subscription.ReconcilerConfig {
	return subscription.ReconcilerConfig{
		Interval:    time.Minute,
		BatchSize:   10,
		MaxAttempts: 3,
	}
}

func TestReconciler_ReplaysOnceCompanyExists(t *testing.T) {
	t.Parallel()

	f := newFixture(t, enabledConfig())
	rec := subscription.NewReconciler(reconcilerConfig(), f.svc, nil)

	// Checkout arrives before onboarding finished creating the company.
	deliver(t, f, checkoutEvent("evt_1", "dispatch@haulage.test", "sub_1", map[string]string{
		"plan": "PRO", "billing": "monthly",
	}))

	rec.RunOnce(context.Background())
	_, err := f.store.FindByProviderID(context.Background(), "sub_1")
	require.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)

	letters, err := f.deadLetters.ListUnresolved(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, 1, letters[0].Attempts)

	// Onboarding catches up; the next pass replays the event successfully.
	seedCompany(t, f, "dispatch@haulage.test")
	rec.RunOnce(context.Background())

	sub, err := f.store.FindByProviderID(context.Background(), "sub_1")
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusTrialing, sub.Status)

	letters, err = f.deadLetters.ListUnresolved(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, letters)
}

func TestReconciler_AlertsAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	f := &fixture{
		provider:    &fakeProvider{},
		store:       &countingStore{MemoryStore: subscription.NewMemoryStore()},
		companies:   company.NewMemoryStore(),
		deadLetters: subscription.NewMemoryDeadLetterStore(),
	}
	cfg := enabledConfig()
	cfg.AlertEmail = "alerts@haulage.test"
	f.svc = subscription.NewService(cfg, fullPriceTable(), f.provider, f.store, f.companies,
		subscription.WithDeadLetterStore(f.deadLetters),
		subscription.WithMailer(sender),
	)

	rcfg := reconcilerConfig()
	rcfg.MaxAttempts = 2
	rec := subscription.NewReconciler(rcfg, f.svc, nil)

	deliver(t, f, checkoutEvent("evt_1", "nobody@haulage.test", "sub_1", nil))
	require.Len(t, sender.messages(), 1, "parking the event alerts immediately")

	rec.RunOnce(context.Background())
	assert.Len(t, sender.messages(), 1, "no alert before the attempt budget is spent")

	rec.RunOnce(context.Background())
	msgs := sender.messages()
	require.Len(t, msgs, 2, "one alert when the budget is exhausted")
	assert.Equal(t, "alerts@haulage.test", msgs[1].To)
	assert.Contains(t, msgs[1].Subject, "after retries")

	// The letter stays parked for manual review; no further alerts.
	rec.RunOnce(context.Background())
	assert.Len(t, sender.messages(), 2)

	letters, err := f.deadLetters.ListUnresolved(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, 3, letters[0].Attempts)
}

func TestReconciler_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	f := newFixture(t, enabledConfig())
	cfg := reconcilerConfig()
	cfg.Interval = 10 * time.Millisecond
	rec := subscription.NewReconciler(cfg, f.svc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop on context cancellation")
	}
}
