package company

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service owns company onboarding logic on top of a Store.
type Service struct {
	store Store
	log   *slog.Logger
}

// NewService creates a company service. Panics on nil store to fail fast
// during initialization.
func NewService(store Store, log *slog.Logger) *Service {
	if store == nil {
		panic("company: store is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, log: log}
}

// Create validates and persists a company for the given owner.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req CreateRequest) (*Company, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c := &Company{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Name:       req.Name,
		LegalName:  req.LegalName,
		Email:      req.Email,
		Phone:      req.Phone,
		MCNumber:   req.MCNumber,
		DOTNumber:  req.DOTNumber,
		Address:    req.Address,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "company created",
		slog.String("company_id", c.ID.String()),
		slog.String("owner_id", ownerID.String()),
	)
	return c, nil
}

// List returns the owner's companies, newest first.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]Company, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// FindByOwner returns the owner's company or ErrCompanyNotFound.
func (s *Service) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*Company, error) {
	return s.store.FindByOwner(ctx, ownerID)
}

// FindByEmail returns the company holding the given billing email. Webhook
// reconciliation uses this as the join key between provider events and
// accounts.
func (s *Service) FindByEmail(ctx context.Context, email string) (*Company, error) {
	return s.store.FindByEmail(ctx, email)
}
