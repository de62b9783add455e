package core

import (
	"time"

	"github.com/google/uuid"
)

// Priority orders events in the queue. Higher values dequeue first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// String returns the lowercase priority name.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// ParsePriority maps a priority name to its value. Unknown names map to normal.
func ParsePriority(s string) Priority {
	switch s {
	case "critical":
		return PriorityCritical
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// Event is a unit of pending work. Immutable once enqueued.
type Event struct {
	ID         string
	Type       string
	Priority   Priority
	Payload    map[string]any
	EnqueuedAt time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the event carries a deadline that has passed.
func (e Event) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// NewEvent builds an event with a generated ID and enqueue timestamp.
func NewEvent(eventType string, priority Priority, payload map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Priority:   priority,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}
}
