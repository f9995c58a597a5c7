package core

import (
	"fmt"
	"net/http"
)

// HTTPError is an error with an HTTP status code and a client-visible message.
type HTTPError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Code)
}

var (
	ErrBadRequest          = HTTPError{Code: http.StatusBadRequest}
	ErrUnauthorized        = HTTPError{Code: http.StatusUnauthorized}
	ErrForbidden           = HTTPError{Code: http.StatusForbidden}
	ErrNotFound            = HTTPError{Code: http.StatusNotFound}
	ErrConflict            = HTTPError{Code: http.StatusConflict}
	ErrInternalServerError = HTTPError{Code: http.StatusInternalServerError}
	ErrNotImplemented      = HTTPError{Code: http.StatusNotImplemented}
)

// NewHTTPError creates an HTTPError with a custom message.
func NewHTTPError(code int, format string, args ...any) HTTPError {
	return HTTPError{Code: code, Message: fmt.Sprintf(format, args...)}
}
