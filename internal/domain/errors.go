// Package domain contains the core business entities for Gatehouse.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same username/email exists.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ===========================================
	// Authentication Errors
	// ===========================================

	// ErrInvalidCredentials indicates authentication failed.
	// Deliberately covers both "no such email" and "wrong password" so
	// responses never reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountLocked indicates the account is temporarily locked
	// after too many failed login attempts.
	ErrAccountLocked = errors.New("account is locked")

	// ===========================================
	// Session Errors
	// ===========================================

	// ErrSessionNotFound indicates the session token does not resolve
	// to a signed-in user (unknown, expired, or destroyed).
	ErrSessionNotFound = errors.New("session not found")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., username, email).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}
