package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/BillBrieferServer/scribe/internal/core/port"
)

var (
	// ErrUnauthenticated indicates the request carries no resolvable session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailNotVerified indicates a correct password against an account that
	// never confirmed its email.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrAlreadyRegistered indicates the email belongs to a verified account.
	ErrAlreadyRegistered = errors.New("email already registered")
	// ErrInvalidCode indicates the one-time code does not match.
	ErrInvalidCode = errors.New("invalid code")
	// ErrExpiredCode indicates the one-time code matched but aged out.
	ErrExpiredCode = errors.New("code expired")
	// ErrWeakPassword indicates the password fails the minimum-length policy.
	ErrWeakPassword = errors.New("password does not meet requirements")
	// ErrDispatchFailed indicates the verification mail could not be sent.
	ErrDispatchFailed = errors.New("could not deliver email")
	// ErrNoteNotFound covers both absent notes and notes owned by another
	// account.
	ErrNoteNotFound = errors.New("note not found")
)

// RateLimitError reports a denied note share together with the cap that
// tripped and how long until a slot frees up.
type RateLimitError struct {
	Scope      port.LimitScope
	RetryAfter time.Duration
}

// Error implements error.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry in %s", e.Scope, e.RetryAfter.Round(time.Second))
}

// AsRateLimitError unwraps err into a *RateLimitError when possible.
func AsRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}
