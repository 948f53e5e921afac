package eventbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultEventCollection is the collection name used when none is configured.
const DefaultEventCollection = "events"

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates an event store backed by the given database.
func NewMongoStore(db *mongo.Database, collection string) (*MongoStore, error) {
	if db == nil {
		return nil, ErrStoreNil
	}
	if collection == "" {
		collection = DefaultEventCollection
	}

	return &MongoStore{coll: db.Collection(collection)}, nil
}

// EnsureIndexes creates the index backing the polling query. Safe to call on
// every startup; MongoDB treats identical index specs as a no-op.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "processing_status", Value: 1},
			{Key: "scheduled_for", Value: 1},
			{Key: "priority_rank", Value: 1},
			{Key: "created_at", Value: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("creating event indexes: %w", err)
	}
	return nil
}

// eventDoc is the persisted shape of an Event. The id is stored as a string
// and the priority rank is denormalized so the polling query can sort
// without application-side ordering.
type eventDoc struct {
	ID           string         `bson:"_id"`
	Type         string         `bson:"event_type"`
	Publisher    string         `bson:"publisher,omitempty"`
	Priority     Priority       `bson:"priority"`
	PriorityRank int            `bson:"priority_rank"`
	Payload      map[string]any `bson:"payload,omitempty"`
	TargetUsers  []string       `bson:"target_users,omitempty"`
	Metadata     map[string]any `bson:"metadata,omitempty"`
	Status       Status         `bson:"processing_status"`
	Attempts     int            `bson:"attempts"`
	ErrorDetails string         `bson:"error_details,omitempty"`
	ScheduledFor time.Time      `bson:"scheduled_for"`
	ProcessedAt  *time.Time     `bson:"processed_at,omitempty"`
	CreatedAt    time.Time      `bson:"created_at"`
}

func toDoc(e *Event) eventDoc {
	return eventDoc{
		ID:           e.ID.String(),
		Type:         e.Type,
		Publisher:    e.Publisher,
		Priority:     e.Priority,
		PriorityRank: e.Priority.Rank(),
		Payload:      e.Payload,
		TargetUsers:  e.TargetUsers,
		Metadata:     e.Metadata,
		Status:       e.Status,
		Attempts:     e.Attempts,
		ErrorDetails: e.ErrorDetails,
		ScheduledFor: e.ScheduledFor,
		ProcessedAt:  e.ProcessedAt,
		CreatedAt:    e.CreatedAt,
	}
}

func (d eventDoc) toEvent() (*Event, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing event id %q: %w", d.ID, err)
	}

	return &Event{
		ID:           id,
		Type:         d.Type,
		Publisher:    d.Publisher,
		Priority:     d.Priority,
		Payload:      d.Payload,
		TargetUsers:  d.TargetUsers,
		Metadata:     d.Metadata,
		Status:       d.Status,
		Attempts:     d.Attempts,
		ErrorDetails: d.ErrorDetails,
		ScheduledFor: d.ScheduledFor,
		ProcessedAt:  d.ProcessedAt,
		CreatedAt:    d.CreatedAt,
	}, nil
}

// CreateEvent persists a new event document.
func (s *MongoStore) CreateEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	if _, err := s.coll.InsertOne(ctx, toDoc(event)); err != nil {
		return fmt.Errorf("inserting event %s: %w", event.ID, err)
	}
	return nil
}

// UpdateEvent replaces the stored event document.
func (s *MongoStore) UpdateEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": event.ID.String()}, toDoc(event))
	if err != nil {
		return fmt.Errorf("updating event %s: %w", event.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrEventNotFound
	}
	return nil
}

// GetEvent fetches a single event by id.
func (s *MongoStore) GetEvent(ctx context.Context, id string) (*Event, error) {
	var doc eventDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching event %s: %w", id, err)
	}

	return doc.toEvent()
}

// ListDue returns due pending events in priority-then-age order.
func (s *MongoStore) ListDue(ctx context.Context, now time.Time, limit int) ([]*Event, error) {
	filter := bson.M{
		"processing_status": StatusPending,
		"scheduled_for":     bson.M{"$lte": now},
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "priority_rank", Value: 1},
		{Key: "created_at", Value: 1},
	})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying due events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*Event
	for cursor.Next(ctx) {
		var doc eventDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding event: %w", err)
		}
		event, err := doc.toEvent()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterating due events: %w", err)
	}

	return events, nil
}
