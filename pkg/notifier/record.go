package notifier

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RelatedContent links a notification to the domain object it is about.
type RelatedContent struct {
	ContentType string `bson:"content_type,omitempty" json:"contentType,omitempty"`
	ContentID   string `bson:"content_id,omitempty"   json:"contentId,omitempty"`
}

// Record is the persisted, user-visible result of one dispatch. One record
// exists per (event, recipient) pair.
type Record struct {
	ID             uuid.UUID      `bson:"_id"                json:"notificationId"`
	Recipient      string         `bson:"recipient"          json:"recipient"`
	Sender         string         `bson:"sender,omitempty"   json:"sender,omitempty"`
	Type           string         `bson:"type"               json:"type"`
	Title          string         `bson:"title"              json:"title"`
	Message        string         `bson:"message"            json:"message"`
	RelatedContent RelatedContent `bson:"related_content"    json:"relatedContent"`
	Metadata       map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Read           bool           `bson:"read"               json:"read"`
	IsDeleted      bool           `bson:"is_deleted"         json:"isDeleted"`
	CreatedAt      time.Time      `bson:"created_at"         json:"createdAt"`
}

// Storage is the persistence boundary for notification records.
type Storage interface {
	// Create persists a new record.
	Create(ctx context.Context, record *Record) error

	// ListSince returns the user's non-deleted records created at or after
	// the given instant, newest first.
	ListSince(ctx context.Context, userID string, since time.Time) ([]*Record, error)

	// MarkRead flags a record as read.
	MarkRead(ctx context.Context, recordID uuid.UUID) error

	// CountUnread returns how many non-deleted unread records a user has.
	CountUnread(ctx context.Context, userID string) (int64, error)
}
