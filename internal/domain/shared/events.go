// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Study events
	EventStudyRecorded EventType = "study.recorded"

	// Revision lifecycle events
	EventRevisionsScheduled EventType = "revision.scheduled"
	EventRevisionCompleted  EventType = "revision.completed"
	EventRevisionPostponed  EventType = "revision.postponed"
	EventRevisionLate       EventType = "revision.late"
	EventRevisionExpired    EventType = "revision.expired"
	EventRevisionReset      EventType = "revision.reset"

	// Streak events
	EventStreakAdvanced EventType = "streak.advanced"
	EventStreakFrozen   EventType = "streak.frozen"
	EventStreakBroken   EventType = "streak.broken"

	// System events
	EventMaintenanceCompleted EventType = "system.maintenance_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Study Events
// ═══════════════════════════════════════════════════════════════════════════

// StudyRecordedEvent is emitted when a user logs a study session.
type StudyRecordedEvent struct {
	BaseEvent
	UserID           string    `json:"user_id"`
	RecordID         string    `json:"record_id"`
	RecordType       string    `json:"record_type"`
	StudyDate        time.Time `json:"study_date"`
	MinutesDedicated int       `json:"minutes_dedicated"`
}

// Payload implements Event interface.
func (e StudyRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":           e.UserID,
		"record_id":         e.RecordID,
		"record_type":       e.RecordType,
		"study_date":        e.StudyDate.Format(time.RFC3339),
		"minutes_dedicated": e.MinutesDedicated,
	}
}

// NewStudyRecordedEvent creates a new StudyRecordedEvent.
func NewStudyRecordedEvent(userID, recordID, recordType string, studyDate time.Time, minutes int) StudyRecordedEvent {
	return StudyRecordedEvent{
		BaseEvent:        NewBaseEvent(EventStudyRecorded, recordID),
		UserID:           userID,
		RecordID:         recordID,
		RecordType:       recordType,
		StudyDate:        studyDate,
		MinutesDedicated: minutes,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Revision Events
// ═══════════════════════════════════════════════════════════════════════════

// RevisionsScheduledEvent is emitted when a revision plan is created
// for a new study record.
type RevisionsScheduledEvent struct {
	BaseEvent
	UserID   string      `json:"user_id"`
	RecordID string      `json:"record_id"`
	DueDates []time.Time `json:"due_dates"`
}

// Payload implements Event interface.
func (e RevisionsScheduledEvent) Payload() map[string]interface{} {
	dates := make([]string, len(e.DueDates))
	for i, d := range e.DueDates {
		dates[i] = d.Format("2006-01-02")
	}
	return map[string]interface{}{
		"user_id":   e.UserID,
		"record_id": e.RecordID,
		"due_dates": dates,
	}
}

// NewRevisionsScheduledEvent creates a new RevisionsScheduledEvent.
func NewRevisionsScheduledEvent(userID, recordID string, dueDates []time.Time) RevisionsScheduledEvent {
	return RevisionsScheduledEvent{
		BaseEvent: NewBaseEvent(EventRevisionsScheduled, recordID),
		UserID:    userID,
		RecordID:  recordID,
		DueDates:  dueDates,
	}
}

// RevisionCompletedEvent is emitted when a revision is marked done.
type RevisionCompletedEvent struct {
	BaseEvent
	UserID      string    `json:"user_id"`
	RevisionID  string    `json:"revision_id"`
	DueDate     time.Time `json:"due_date"`
	CompletedAt time.Time `json:"completed_at"`
}

// Payload implements Event interface.
func (e RevisionCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"revision_id":  e.RevisionID,
		"due_date":     e.DueDate.Format("2006-01-02"),
		"completed_at": e.CompletedAt.Format(time.RFC3339),
	}
}

// NewRevisionCompletedEvent creates a new RevisionCompletedEvent.
func NewRevisionCompletedEvent(userID, revisionID string, dueDate, completedAt time.Time) RevisionCompletedEvent {
	return RevisionCompletedEvent{
		BaseEvent:   NewBaseEvent(EventRevisionCompleted, revisionID),
		UserID:      userID,
		RevisionID:  revisionID,
		DueDate:     dueDate,
		CompletedAt: completedAt,
	}
}

// RevisionPostponedEvent is emitted when a user pushes a revision to a later day.
type RevisionPostponedEvent struct {
	BaseEvent
	UserID     string    `json:"user_id"`
	RevisionID string    `json:"revision_id"`
	OldDueDate time.Time `json:"old_due_date"`
	NewDueDate time.Time `json:"new_due_date"`
}

// Payload implements Event interface.
func (e RevisionPostponedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"revision_id":  e.RevisionID,
		"old_due_date": e.OldDueDate.Format("2006-01-02"),
		"new_due_date": e.NewDueDate.Format("2006-01-02"),
	}
}

// NewRevisionPostponedEvent creates a new RevisionPostponedEvent.
func NewRevisionPostponedEvent(userID, revisionID string, oldDue, newDue time.Time) RevisionPostponedEvent {
	return RevisionPostponedEvent{
		BaseEvent:  NewBaseEvent(EventRevisionPostponed, revisionID),
		UserID:     userID,
		RevisionID: revisionID,
		OldDueDate: oldDue,
		NewDueDate: newDue,
	}
}

// RevisionStatusChangedEvent is emitted when maintenance moves a revision
// to a new status (late, expired, or reset back to pending).
type RevisionStatusChangedEvent struct {
	BaseEvent
	UserID     string    `json:"user_id"`
	RevisionID string    `json:"revision_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	DueDate    time.Time `json:"due_date"`
}

// Payload implements Event interface.
func (e RevisionStatusChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     e.UserID,
		"revision_id": e.RevisionID,
		"from_status": e.FromStatus,
		"to_status":   e.ToStatus,
		"due_date":    e.DueDate.Format("2006-01-02"),
	}
}

// NewRevisionStatusChangedEvent creates a status change event. The event
// type is picked from the destination status.
func NewRevisionStatusChangedEvent(eventType EventType, userID, revisionID, from, to string, dueDate time.Time) RevisionStatusChangedEvent {
	return RevisionStatusChangedEvent{
		BaseEvent:  NewBaseEvent(eventType, revisionID),
		UserID:     userID,
		RevisionID: revisionID,
		FromStatus: from,
		ToStatus:   to,
		DueDate:    dueDate,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak Events
// ═══════════════════════════════════════════════════════════════════════════

// StreakAdvancedEvent is emitted when a user's streak grows.
type StreakAdvancedEvent struct {
	BaseEvent
	UserID        string    `json:"user_id"`
	CurrentStreak int       `json:"current_streak"`
	ActiveDate    time.Time `json:"active_date"`
}

// Payload implements Event interface.
func (e StreakAdvancedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"current_streak": e.CurrentStreak,
		"active_date":    e.ActiveDate.Format("2006-01-02"),
	}
}

// NewStreakAdvancedEvent creates a new StreakAdvancedEvent.
func NewStreakAdvancedEvent(userID string, currentStreak int, activeDate time.Time) StreakAdvancedEvent {
	return StreakAdvancedEvent{
		BaseEvent:     NewBaseEvent(EventStreakAdvanced, userID),
		UserID:        userID,
		CurrentStreak: currentStreak,
		ActiveDate:    activeDate,
	}
}

// StreakFrozenEvent is emitted when freeze tokens absorb missed days.
type StreakFrozenEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	FreezesSpent  int    `json:"freezes_spent"`
	FreezesLeft   int    `json:"freezes_left"`
	CurrentStreak int    `json:"current_streak"`
}

// Payload implements Event interface.
func (e StreakFrozenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"freezes_spent":  e.FreezesSpent,
		"freezes_left":   e.FreezesLeft,
		"current_streak": e.CurrentStreak,
	}
}

// NewStreakFrozenEvent creates a new StreakFrozenEvent.
func NewStreakFrozenEvent(userID string, freezesSpent, freezesLeft, currentStreak int) StreakFrozenEvent {
	return StreakFrozenEvent{
		BaseEvent:     NewBaseEvent(EventStreakFrozen, userID),
		UserID:        userID,
		FreezesSpent:  freezesSpent,
		FreezesLeft:   freezesLeft,
		CurrentStreak: currentStreak,
	}
}

// StreakBrokenEvent is emitted when a user's streak resets to zero.
type StreakBrokenEvent struct {
	BaseEvent
	UserID         string `json:"user_id"`
	PreviousStreak int    `json:"previous_streak"`
	DaysMissed     int    `json:"days_missed"`
	FreezesSpent   int    `json:"freezes_spent"`
}

// Payload implements Event interface.
func (e StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"previous_streak": e.PreviousStreak,
		"days_missed":     e.DaysMissed,
		"freezes_spent":   e.FreezesSpent,
	}
}

// NewStreakBrokenEvent creates a new StreakBrokenEvent.
func NewStreakBrokenEvent(userID string, previousStreak, daysMissed, freezesSpent int) StreakBrokenEvent {
	return StreakBrokenEvent{
		BaseEvent:      NewBaseEvent(EventStreakBroken, userID),
		UserID:         userID,
		PreviousStreak: previousStreak,
		DaysMissed:     daysMissed,
		FreezesSpent:   freezesSpent,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// MaintenanceCompletedEvent is emitted after a daily maintenance run finishes.
type MaintenanceCompletedEvent struct {
	BaseEvent
	RunDate          time.Time `json:"run_date"`
	UsersProcessed   int       `json:"users_processed"`
	RevisionsUpdated int       `json:"revisions_updated"`
	StreaksBroken    int       `json:"streaks_broken"`
	FreezesSpent     int       `json:"freezes_spent"`
	Failures         int       `json:"failures"`
}

// Payload implements Event interface.
func (e MaintenanceCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"run_date":          e.RunDate.Format("2006-01-02"),
		"users_processed":   e.UsersProcessed,
		"revisions_updated": e.RevisionsUpdated,
		"streaks_broken":    e.StreaksBroken,
		"freezes_spent":     e.FreezesSpent,
		"failures":          e.Failures,
	}
}

// NewMaintenanceCompletedEvent creates a new MaintenanceCompletedEvent.
func NewMaintenanceCompletedEvent(runDate time.Time, usersProcessed, revisionsUpdated, streaksBroken, freezesSpent, failures int) MaintenanceCompletedEvent {
	return MaintenanceCompletedEvent{
		BaseEvent:        NewBaseEvent(EventMaintenanceCompleted, runDate.Format("2006-01-02")),
		RunDate:          runDate,
		UsersProcessed:   usersProcessed,
		RevisionsUpdated: revisionsUpdated,
		StreaksBroken:    streaksBroken,
		FreezesSpent:     freezesSpent,
		Failures:         failures,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
