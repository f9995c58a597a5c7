package subscription

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/autodispatchai/platform/svc/billing"
)

// ReconcilerConfig holds dead-letter replay configuration.
type ReconcilerConfig struct {
	Interval    time.Duration `env:"RECONCILER_INTERVAL" envDefault:"5m"`
	BatchSize   int           `env:"RECONCILER_BATCH_SIZE" envDefault:"50"`
	MaxAttempts int           `env:"RECONCILER_MAX_ATTEMPTS" envDefault:"10"`
}

// Reconciler periodically replays dead-lettered webhook events. A checkout
// event parked because its company did not exist yet succeeds on a later
// pass once onboarding catches up; events still failing after MaxAttempts
// raise an alert and stay parked for manual review.
type Reconciler struct {
	cfg ReconcilerConfig
	svc *Service
	log *slog.Logger
}

// NewReconciler creates a dead-letter reconciler. Panics on nil service to
// fail fast during initialization.
func NewReconciler(cfg ReconcilerConfig, svc *Service, log *slog.Logger) *Reconciler {
	if svc == nil {
		panic("subscription: service is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Reconciler{cfg: cfg, svc: svc, log: log}
}

// Run replays dead letters on a fixed interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single reconciliation pass.
func (r *Reconciler) RunOnce(ctx context.Context) {
	letters, err := r.svc.deadLetters.ListUnresolved(ctx, r.cfg.BatchSize)
	if err != nil {
		r.log.ErrorContext(ctx, "failed to list dead letters", slog.Any("error", err))
		return
	}

	for _, dl := range letters {
		r.replay(ctx, dl)
	}
}

func (r *Reconciler) replay(ctx context.Context, dl DeadLetter) {
	var event billing.Event
	if err := json.Unmarshal(dl.Payload, &event); err != nil {
		r.log.ErrorContext(ctx, "failed to decode dead letter payload",
			slog.String("event_id", dl.EventID), slog.Any("error", err))
		return
	}

	if err := r.svc.deadLetters.RecordAttempt(ctx, dl.ID); err != nil {
		r.log.ErrorContext(ctx, "failed to record replay attempt",
			slog.String("event_id", dl.EventID), slog.Any("error", err))
		return
	}
	attempts := dl.Attempts + 1

	if err := r.svc.applyEvent(ctx, &event); err != nil {
		r.log.InfoContext(ctx, "dead letter replay failed",
			slog.String("event_id", dl.EventID),
			slog.Int("attempts", attempts),
			slog.Any("error", err))

		// Alert exactly once, on the pass that exhausts the budget.
		if attempts == r.cfg.MaxAttempts {
			dl.Attempts = attempts
			r.svc.sendAlert(ctx, &dl, "Webhook event still failing after retries")
		}
		return
	}

	if err := r.svc.deadLetters.MarkResolved(ctx, dl.ID); err != nil {
		r.log.ErrorContext(ctx, "failed to mark dead letter resolved",
			slog.String("event_id", dl.EventID), slog.Any("error", err))
		return
	}

	r.log.InfoContext(ctx, "dead letter replayed",
		slog.String("event_id", dl.EventID),
		slog.Int("attempts", attempts))
}
