package subscription

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgDeadLetterStore is the Postgres-backed dead-letter store.
type PgDeadLetterStore struct {
	pool *pgxpool.Pool
}

// NewPgDeadLetterStore creates a Postgres dead-letter store. Panics on nil
// pool to fail fast during initialization.
func NewPgDeadLetterStore(pool *pgxpool.Pool) *PgDeadLetterStore {
	if pool == nil {
		panic("subscription: pgx pool is required")
	}
	return &PgDeadLetterStore{pool: pool}
}

func (s *PgDeadLetterStore) Save(ctx context.Context, dl *DeadLetter) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO webhook_dead_letters (
			id, event_id, event_type, customer_email,
			stripe_subscription_id, payload, reason, attempts, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id) DO UPDATE SET
			reason = EXCLUDED.reason`,
		dl.ID, dl.EventID, dl.EventType, dl.CustomerEmail,
		dl.ProviderSubID, dl.Payload, dl.Reason, dl.Attempts, dl.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save dead letter: %w", err)
	}
	return nil
}

func (s *PgDeadLetterStore) ListUnresolved(ctx context.Context, limit int) ([]DeadLetter, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, event_id, event_type, customer_email,
			stripe_subscription_id, payload, reason, attempts,
			resolved_at, created_at
		FROM webhook_dead_letters
		WHERE resolved_at IS NULL
		ORDER BY created_at
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}
	defer rows.Close()

	letters := []DeadLetter{}
	for rows.Next() {
		var dl DeadLetter
		if err := rows.Scan(
			&dl.ID, &dl.EventID, &dl.EventType, &dl.CustomerEmail,
			&dl.ProviderSubID, &dl.Payload, &dl.Reason, &dl.Attempts,
			&dl.ResolvedAt, &dl.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan dead letter: %w", err)
		}
		letters = append(letters, dl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dead letter rows: %w", err)
	}
	return letters, nil
}

func (s *PgDeadLetterStore) MarkResolved(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE webhook_dead_letters SET resolved_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to resolve dead letter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDeadLetterNotFound
	}
	return nil
}

func (s *PgDeadLetterStore) RecordAttempt(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE webhook_dead_letters SET attempts = attempts + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to record dead letter attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDeadLetterNotFound
	}
	return nil
}
