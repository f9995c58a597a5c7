package subscription

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DeadLetter is a verified webhook event that could not be applied, usually
// because no company matched its customer email yet. Rows stay until the
// reconciler replays them successfully.
type DeadLetter struct {
	ID            uuid.UUID
	EventID       string
	EventType     string
	CustomerEmail string
	ProviderSubID string
	Payload       []byte // normalized event JSON, replayed by the reconciler
	Reason        string
	Attempts      int
	ResolvedAt    *time.Time
	CreatedAt     time.Time
}

// DeadLetterStore persists undeliverable webhook events. Save is keyed by
// EventID so redelivered events do not pile up duplicate rows.
type DeadLetterStore interface {
	Save(ctx context.Context, dl *DeadLetter) error
	ListUnresolved(ctx context.Context, limit int) ([]DeadLetter, error)
	MarkResolved(ctx context.Context, id uuid.UUID) error
	RecordAttempt(ctx context.Context, id uuid.UUID) error
}

// MemoryDeadLetterStore is an in-memory DeadLetterStore for tests and local
// development.
type MemoryDeadLetterStore struct {
	mu      sync.RWMutex
	letters map[string]DeadLetter // keyed by event id
}

// NewMemoryDeadLetterStore creates an empty in-memory dead-letter store.
func NewMemoryDeadLetterStore() *MemoryDeadLetterStore {
	return &MemoryDeadLetterStore{letters: make(map[string]DeadLetter)}
}

func (s *MemoryDeadLetterStore) Save(ctx context.Context, dl *DeadLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.letters[dl.EventID]; ok {
		dl.ID = existing.ID
		dl.Attempts = existing.Attempts
		dl.CreatedAt = existing.CreatedAt
	}
	s.letters[dl.EventID] = *dl
	return nil
}

func (s *MemoryDeadLetterStore) ListUnresolved(ctx context.Context, limit int) ([]DeadLetter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []DeadLetter{}
	for _, dl := range s.letters {
		if dl.ResolvedAt == nil {
			out = append(out, dl)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryDeadLetterStore) MarkResolved(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for eventID, dl := range s.letters {
		if dl.ID == id {
			now := time.Now().UTC()
			dl.ResolvedAt = &now
			s.letters[eventID] = dl
			return nil
		}
	}
	return ErrDeadLetterNotFound
}

func (s *MemoryDeadLetterStore) RecordAttempt(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for eventID, dl := range s.letters {
		if dl.ID == id {
			dl.Attempts++
			s.letters[eventID] = dl
			return nil
		}
	}
	return ErrDeadLetterNotFound
}
