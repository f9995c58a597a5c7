package company

import "errors"

var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrCompanyExists   = errors.New("company already exists for this account")
	ErrEmailTaken      = errors.New("company email already in use")
)
