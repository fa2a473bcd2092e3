package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrIdentity indicates that an entry carries neither a native id, a title nor a link.
	ErrIdentity = errors.New("entry has no identity")

	// ErrTimestampParse indicates that an entry timestamp matched no known layout.
	ErrTimestampParse = errors.New("unrecognized timestamp")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap lets callers match any validation failure with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// IdentityError is returned by DeriveID for an entry that cannot be identified.
type IdentityError struct {
	RawPublished string
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("entry published %q: no native id, title or link", e.RawPublished)
}

func (e *IdentityError) Unwrap() error {
	return ErrIdentity
}

// TimestampParseError is returned by ParseTimestamp when no layout matches.
type TimestampParseError struct {
	Raw string
}

func (e *TimestampParseError) Error() string {
	return fmt.Sprintf("parse timestamp %q: no matching layout", e.Raw)
}

func (e *TimestampParseError) Unwrap() error {
	return ErrTimestampParse
}
