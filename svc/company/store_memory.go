package company

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu        sync.RWMutex
	companies map[uuid.UUID]Company
}

// NewMemoryStore creates an empty in-memory company store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{companies: make(map[uuid.UUID]Company)}
}

func (s *MemoryStore) Create(ctx context.Context, c *Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.companies {
		if existing.OwnerID == c.OwnerID {
			return ErrCompanyExists
		}
		if strings.EqualFold(existing.Email, c.Email) {
			return ErrEmailTaken
		}
	}
	s.companies[c.ID] = *c
	return nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Company{}
	for _, c := range s.companies {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.companies {
		if c.OwnerID == ownerID {
			found := c
			return &found, nil
		}
	}
	return nil, ErrCompanyNotFound
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.companies {
		if strings.EqualFold(c.Email, email) {
			found := c
			return &found, nil
		}
	}
	return nil, ErrCompanyNotFound
}
