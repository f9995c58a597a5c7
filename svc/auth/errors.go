package auth

import "errors"

var (
	ErrNoToken      = errors.New("no access token in request")
	ErrInvalidToken = errors.New("invalid access token")
)
