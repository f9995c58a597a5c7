package company

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/autodispatchai/platform/pkg/pg"
)

// PgStore is the Postgres-backed company store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a Postgres company store. Panics on nil pool to fail
// fast during initialization.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	if pool == nil {
		panic("company: pgx pool is required")
	}
	return &PgStore{pool: pool}
}

const companyColumns = `id, owner_id, company_name, legal_name, email, phone,
	mc_number, dot_number, address, city, state, postal_code, country, created_at`

func scanCompany(row pgx.Row) (*Company, error) {
	var c Company
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.Name, &c.LegalName, &c.Email, &c.Phone,
		&c.MCNumber, &c.DOTNumber, &c.Address, &c.City, &c.State,
		&c.PostalCode, &c.Country, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PgStore) Create(ctx context.Context, c *Company) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO companies (`+companyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.OwnerID, c.Name, c.LegalName, c.Email, c.Phone,
		c.MCNumber, c.DOTNumber, c.Address, c.City, c.State,
		c.PostalCode, c.Country, c.CreatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && strings.Contains(pgErr.ConstraintName, "email") {
			return ErrEmailTaken
		}
		return ErrCompanyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert company: %w", err)
	}
	return nil
}

func (s *PgStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Company, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+companyColumns+`
		FROM companies
		WHERE owner_id = $1
		ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	companies := []Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read company rows: %w", err)
	}
	return companies, nil
}

func (s *PgStore) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*Company, error) {
	c, err := scanCompany(s.pool.QueryRow(ctx, `
		SELECT `+companyColumns+`
		FROM companies
		WHERE owner_id = $1`,
		ownerID,
	))
	if pg.IsNotFoundError(err) {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find company by owner: %w", err)
	}
	return c, nil
}

func (s *PgStore) FindByEmail(ctx context.Context, email string) (*Company, error) {
	c, err := scanCompany(s.pool.QueryRow(ctx, `
		SELECT `+companyColumns+`
		FROM companies
		WHERE lower(email) = lower($1)`,
		email,
	))
	if pg.IsNotFoundError(err) {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find company by email: %w", err)
	}
	return c, nil
}
