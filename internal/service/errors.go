package service

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedPayload  = errors.New("malformed payload")
	ErrPayloadTooLarge   = errors.New("payload too large")
	ErrInvalidField      = errors.New("invalid field")
	ErrDuplicateDetected = errors.New("duplicate detected")
	ErrQuotaExceeded     = errors.New("quota exceeded")
	ErrRateLimited       = errors.New("rate limited")
	ErrFetchFailed       = errors.New("fetch failed")
	ErrNotFound          = errors.New("registry not found")
	ErrUnauthenticated   = errors.New("unauthenticated")
)

// FieldError names the offending batch element and field.
// Index is -1 for single-item operations.
type FieldError struct {
	Index  int
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("item %d, field %q: %s", e.Index, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidField
}

// DuplicateError identifies at least one conflicting item. Index is the
// position within the batch (-1 when unknown); ConflictID is the id of the
// existing active registry when the clash is against the stored set.
type DuplicateError struct {
	Index      int
	ConflictID string
}

func (e *DuplicateError) Error() string {
	switch {
	case e.ConflictID != "" && e.Index >= 0:
		return fmt.Sprintf("item %d duplicates existing registry %s", e.Index, e.ConflictID)
	case e.ConflictID != "":
		return fmt.Sprintf("duplicates existing registry %s", e.ConflictID)
	case e.Index >= 0:
		return fmt.Sprintf("item %d duplicates another item in the batch", e.Index)
	default:
		return "duplicate registry"
	}
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicateDetected
}
