package eventbus

import (
	"time"

	"github.com/google/uuid"
)

// Priority orders events within a polling batch. Lower rank sorts first.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank returns the numeric sort order of the priority; critical sorts first.
// Unknown priorities sort last so malformed input never jumps the queue.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Valid reports whether the priority is one of the known values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Status represents the processing state of an event.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Event is a durable unit of pipeline work awaiting fan-out to recipients.
//
// Attempts only increases; ScheduledFor is non-decreasing across retries
// (backoff pushes it forward, never back). The Bus owns all mutations after
// creation.
type Event struct {
	ID           uuid.UUID      `bson:"_id" json:"id"`
	Type         string         `bson:"event_type" json:"event_type"`
	Publisher    string         `bson:"publisher,omitempty" json:"publisher,omitempty"`
	Priority     Priority       `bson:"priority" json:"priority"`
	Payload      map[string]any `bson:"payload,omitempty" json:"payload,omitempty"`
	TargetUsers  []string       `bson:"target_users,omitempty" json:"target_users,omitempty"`
	Metadata     map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Status       Status         `bson:"processing_status" json:"processing_status"`
	Attempts     int            `bson:"attempts" json:"attempts"`
	ErrorDetails string         `bson:"error_details,omitempty" json:"error_details,omitempty"`
	ScheduledFor time.Time      `bson:"scheduled_for" json:"scheduled_for"`
	ProcessedAt  *time.Time     `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
	CreatedAt    time.Time      `bson:"created_at" json:"created_at"`
}
