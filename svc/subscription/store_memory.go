package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]Subscription // keyed by provider subscription id
}

// NewMemoryStore creates an empty in-memory subscription store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[string]Subscription)}
}

// Upsert mirrors the Postgres conflict-on-company semantics: any existing
// row for the company is replaced, keeping its id and creation time.
func (s *MemoryStore) Upsert(ctx context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, existing := range s.subs {
		if existing.CompanyID != sub.CompanyID {
			continue
		}
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
		delete(s.subs, key)
		break
	}
	s.subs[sub.ProviderSubID] = *sub
	return nil
}

func (s *MemoryStore) UpdateState(ctx context.Context, providerSubID string, change StateChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[providerSubID]
	if !ok {
		return ErrSubscriptionNotFound
	}

	sub.Status = change.Status
	if change.PeriodEnd != nil {
		sub.CurrentPeriodEnd = change.PeriodEnd
	}
	if change.ClearTrial {
		sub.TrialEndsAt = nil
	} else if change.TrialEnd != nil {
		sub.TrialEndsAt = change.TrialEnd
	}
	sub.UpdatedAt = time.Now().UTC()

	s.subs[providerSubID] = sub
	return nil
}

func (s *MemoryStore) FindByProviderID(ctx context.Context, providerSubID string) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[providerSubID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	found := sub
	return &found, nil
}

func (s *MemoryStore) FindByCompany(ctx context.Context, companyID uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subs {
		if sub.CompanyID == companyID {
			found := sub
			return &found, nil
		}
	}
	return nil, ErrSubscriptionNotFound
}
