package company

import (
	"context"

	"github.com/google/uuid"
)

// Store defines company persistence. Both owner id and email carry unique
// constraints; Create reports which one collided.
type Store interface {
	// Create inserts a new company. Returns ErrCompanyExists when the owner
	// already has one and ErrEmailTaken when the email is claimed by another
	// company.
	Create(ctx context.Context, c *Company) error

	// ListByOwner returns the owner's companies, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Company, error)

	// FindByOwner returns the owner's company or ErrCompanyNotFound.
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*Company, error)

	// FindByEmail returns the company with the given billing email or
	// ErrCompanyNotFound. The email is matched case-insensitively.
	FindByEmail(ctx context.Context, email string) (*Company, error)
}
