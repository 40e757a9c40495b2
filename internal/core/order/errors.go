package order

import (
	"errors"
	"fmt"
)

// ValidationError rejects bad or missing input before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ExchangeError is a non-2xx response carrying the exchange's error payload.
type ExchangeError struct {
	Status int
	Code   int
	Msg    string
	Body   string
}

func (e *ExchangeError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("exchange error: status=%d code=%d msg=%s", e.Status, e.Code, e.Msg)
	}
	return fmt.Sprintf("exchange error: status=%d body=%s", e.Status, e.Body)
}

// AuthError is an exchange rejection of the API key or the signature.
type AuthError struct {
	ExchangeError
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth rejected: status=%d code=%d msg=%s", e.Status, e.Code, e.Msg)
}

// NetworkError is a transport failure (DNS, connect, timeout, reset).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error during %s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// Kind names the taxonomy bucket of err for logs and the journal.
func Kind(err error) string {
	var (
		verr *ValidationError
		aerr *AuthError
		nerr *NetworkError
		xerr *ExchangeError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &aerr):
		return "auth"
	case errors.As(err, &nerr):
		return "network"
	case errors.As(err, &xerr):
		return "exchange"
	default:
		return "internal"
	}
}
