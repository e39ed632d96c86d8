package core

import "fmt"

// NetworkError wraps a failed or timed-out fetch against the backend.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError signals a rejected or expired credential (HTTP 401).
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: request rejected with status %d", e.Status)
}

// ValidationError signals a malformed payload on a write operation. It is
// surfaced synchronously to the caller and never bubbles into shared state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// FormatError signals an invalid currency code or locale.
type FormatError struct {
	Code   string
	Locale string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format: currency %q locale %q: %v", e.Code, e.Locale, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
