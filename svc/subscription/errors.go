package subscription

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrDeadLetterNotFound   = errors.New("dead letter not found")
	ErrBillingDisabled      = errors.New("billing is not enabled")
	ErrMissingSessionID     = errors.New("missing session id")
	ErrCompanyNotMatched    = errors.New("no company matches the event")
)
