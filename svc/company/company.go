package company

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Company is a carrier profile created during onboarding. Each account owns
// at most one company, and the billing email doubles as the key that links
// provider webhook events back to the account.
type Company struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Name       string    `json:"company_name"`
	LegalName  string    `json:"legal_name,omitempty"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	MCNumber   string    `json:"mc_number,omitempty"`
	DOTNumber  string    `json:"dot_number,omitempty"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateRequest is the JSON payload for creating a company.
type CreateRequest struct {
	Name       string `json:"company_name"`
	LegalName  string `json:"legal_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	MCNumber   string `json:"mc_number"`
	DOTNumber  string `json:"dot_number"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// MissingFieldError identifies the first required field absent from a create
// request. Its message is part of the API contract.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("Missing field: %s", e.Field)
}

// Normalize trims every field and lower-cases the email so that lookups by
// email behave the same regardless of how the form was filled in.
func (r *CreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.LegalName = strings.TrimSpace(r.LegalName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.MCNumber = strings.TrimSpace(r.MCNumber)
	r.DOTNumber = strings.TrimSpace(r.DOTNumber)
	r.Address = strings.TrimSpace(r.Address)
	r.City = strings.TrimSpace(r.City)
	r.State = strings.TrimSpace(r.State)
	r.PostalCode = strings.TrimSpace(r.PostalCode)
	r.Country = strings.TrimSpace(r.Country)
}

// Validate checks the required fields in a stable order and reports the first
// one missing.
func (r *CreateRequest) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"company_name", r.Name},
		{"email", r.Email},
		{"address", r.Address},
		{"city", r.City},
		{"state", r.State},
		{"postal_code", r.PostalCode},
		{"country", r.Country},
	}
	for _, f := range required {
		if f.value == "" {
			return &MissingFieldError{Field: f.name}
		}
	}
	return nil
}
