// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// UserID represents a unique user identifier (UUID format).
type UserID string

// IsValid checks if the user ID is a valid UUID.
func (u UserID) IsValid() bool {
	return uuidRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.ToLower(strings.TrimSpace(id)))
	if !uid.IsValid() {
		return "", NewDomainError("shared", "NewUserID", ErrInvalidID, "invalid user ID format")
	}
	return uid, nil
}

// RevisionID represents a unique revision identifier (UUID format).
type RevisionID string

// IsValid checks if the revision ID is a valid UUID.
func (r RevisionID) IsValid() bool {
	return uuidRegex.MatchString(string(r))
}

// String returns the string representation.
func (r RevisionID) String() string {
	return string(r)
}

// IsEmpty checks if the ID is empty.
func (r RevisionID) IsEmpty() bool {
	return r == ""
}

// NewRevisionID creates a new RevisionID with validation.
func NewRevisionID(id string) (RevisionID, error) {
	rid := RevisionID(strings.ToLower(strings.TrimSpace(id)))
	if !rid.IsValid() {
		return "", NewDomainError("shared", "NewRevisionID", ErrInvalidID, "invalid revision ID format")
	}
	return rid, nil
}

// RecordID represents a unique study record identifier (UUID format).
type RecordID string

// IsValid checks if the record ID is a valid UUID.
func (r RecordID) IsValid() bool {
	return uuidRegex.MatchString(string(r))
}

// String returns the string representation.
func (r RecordID) String() string {
	return string(r)
}

// IsEmpty checks if the ID is empty.
func (r RecordID) IsEmpty() bool {
	return r == ""
}

// NewRecordID creates a new RecordID with validation.
func NewRecordID(id string) (RecordID, error) {
	rid := RecordID(strings.ToLower(strings.TrimSpace(id)))
	if !rid.IsValid() {
		return "", NewDomainError("shared", "NewRecordID", ErrInvalidID, "invalid record ID format")
	}
	return rid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// DateRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// DateRange represents an inclusive range of calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// IsValid checks if the date range is valid.
func (d DateRange) IsValid() bool {
	return !d.From.IsZero() && !d.To.IsZero() && !d.From.After(d.To)
}

// Days returns the number of days covered, inclusive of both ends.
func (d DateRange) Days() int {
	return int(d.To.Sub(d.From).Hours()/24) + 1
}

// Contains checks if a day falls within the range.
func (d DateRange) Contains(t time.Time) bool {
	return (t.Equal(d.From) || t.After(d.From)) && (t.Equal(d.To) || t.Before(d.To))
}

// NewDateRange creates a new DateRange with validation.
func NewDateRange(from, to time.Time) (DateRange, error) {
	dr := DateRange{From: from, To: to}
	if !dr.IsValid() {
		return DateRange{}, NewDomainError("shared", "NewDateRange", ErrInvalidInput, "'from' must not be after 'to'")
	}
	return dr, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters for list queries.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// DefaultPagination returns default pagination.
func DefaultPagination() Pagination {
	return NewPagination(1, DefaultPageSize)
}
