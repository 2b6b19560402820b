package delivery

import (
	"errors"
	"fmt"
)

// RateLimitError is the only chat-API failure worth retrying.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("chat api rate limit: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// AuthError means the access token was rejected. Not retryable.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("chat api authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError covers every other chat-API failure (4xx/5xx, malformed
// response, transport). Not retryable; triggers the email fallback.
type APIError struct {
	Code    int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chat api error: %v", e.Err)
	}
	return fmt.Sprintf("chat api error %d: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// RecipientError means the configured recipient is unusable (empty after
// phone normalization). Raised before any network call.
type RecipientError struct {
	Raw string
}

func (e *RecipientError) Error() string {
	return fmt.Sprintf("invalid chat recipient %q: no digits after normalization", e.Raw)
}

// EmailError means the SMTP fallback itself failed, either because its
// configuration is incomplete or the exchange was rejected. A failed
// primary with no working fallback must be loud.
type EmailError struct {
	Reason string
	Err    error
}

func (e *EmailError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("email fallback failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("email fallback failed: %s", e.Reason)
}

func (e *EmailError) Unwrap() error { return e.Err }

// isPrimaryError reports whether err came from the primary chat channel,
// which is the only condition that triggers the email fallback.
func isPrimaryError(err error) bool {
	var rl *RateLimitError
	var auth *AuthError
	var api *APIError
	var rec *RecipientError
	return errors.As(err, &rl) || errors.As(err, &auth) ||
		errors.As(err, &api) || errors.As(err, &rec)
}

func isRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
