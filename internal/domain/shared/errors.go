// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")
	ErrInvalidFormat   = errors.New("invalid format")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// Infrastructure errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "revision", "streak", "user"
	Op      string // Operation that failed, e.g., "Plan", "Evaluate"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// User domain errors
var (
	ErrUserNotFound      = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists = NewDomainError("user", "Create", ErrAlreadyExists, "user already exists")
	ErrInvalidUserID     = NewDomainError("user", "Validate", ErrInvalidID, "invalid user ID")
	ErrInvalidWeekStart  = NewDomainError("user", "Validate", ErrInvalidInput, "week must start on Sunday or Monday")
)

// Study domain errors
var (
	ErrStudyRecordNotFound = NewDomainError("study", "Find", ErrNotFound, "study record not found")
	ErrStudyDateInFuture   = NewDomainError("study", "Validate", ErrFutureTimestamp, "study date cannot be in the future")
	ErrInvalidStudyType    = NewDomainError("study", "Validate", ErrInvalidInput, "invalid study record type")
	ErrNegativeMinutes     = NewDomainError("study", "Validate", ErrNegativeValue, "dedicated minutes cannot be negative")
)

// Revision domain errors
var (
	ErrRevisionNotFound     = NewDomainError("revision", "Find", ErrNotFound, "revision not found")
	ErrRevisionTerminal     = NewDomainError("revision", "Evaluate", ErrStateTransition, "revision is in a terminal status")
	ErrInvalidOffset        = NewDomainError("revision", "Plan", ErrInvalidConfiguration, "revision offsets must be positive")
	ErrInvalidTolerance     = NewDomainError("revision", "Evaluate", ErrInvalidConfiguration, "lateness tolerance cannot be negative")
	ErrInvalidStatus        = NewDomainError("revision", "Validate", ErrInvalidInput, "invalid revision status")
	ErrRevisionNotOpen      = NewDomainError("revision", "Complete", ErrStateTransition, "revision cannot be completed from its current status")
)

// Streak domain errors
var (
	ErrStreakCorrupted    = NewDomainError("streak", "Validate", ErrInvalidConfiguration, "used freezes exceed total freezes")
	ErrActivityGap        = NewDomainError("streak", "RegisterActivity", ErrInvalidState, "activity registered across an unevaluated gap")
	ErrActivityInPast     = NewDomainError("streak", "RegisterActivity", ErrInvalidState, "activity date precedes last active date")
	ErrNegativeFreezes    = NewDomainError("streak", "Validate", ErrNegativeValue, "freeze counters cannot be negative")
	ErrMaintenanceRunning = NewDomainError("streak", "Decay", ErrAlreadyProcessed, "maintenance already ran for this day")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsInvalidConfiguration checks if the error stems from bad preferences or
// planner settings rather than bad runtime state.
func IsInvalidConfiguration(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
