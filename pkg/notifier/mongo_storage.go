package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultRecordCollection is the collection name used when none is configured.
const DefaultRecordCollection = "notifications"

// MongoStorage implements Storage on a MongoDB collection.
type MongoStorage struct {
	coll *mongo.Collection
}

// NewMongoStorage creates a record storage backed by the given database.
func NewMongoStorage(db *mongo.Database, collection string) (*MongoStorage, error) {
	if db == nil {
		return nil, ErrStorageNil
	}
	if collection == "" {
		collection = DefaultRecordCollection
	}
	return &MongoStorage{coll: db.Collection(collection)}, nil
}

// EnsureIndexes creates the indexes backing digest lookback and unread
// counting. Safe to call on every startup.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "recipient", Value: 1},
			{Key: "created_at", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "recipient", Value: 1},
			{Key: "read", Value: 1},
		}},
	})
	if err != nil {
		return fmt.Errorf("creating notification indexes: %w", err)
	}
	return nil
}

// recordDoc stores the uuid id as a string, matching the event store.
type recordDoc struct {
	ID             string         `bson:"_id"`
	Recipient      string         `bson:"recipient"`
	Sender         string         `bson:"sender,omitempty"`
	Type           string         `bson:"type"`
	Title          string         `bson:"title"`
	Message        string         `bson:"message"`
	RelatedContent RelatedContent `bson:"related_content"`
	Metadata       map[string]any `bson:"metadata,omitempty"`
	Read           bool           `bson:"read"`
	IsDeleted      bool           `bson:"is_deleted"`
	CreatedAt      time.Time      `bson:"created_at"`
}

func toRecordDoc(r *Record) recordDoc {
	return recordDoc{
		ID:             r.ID.String(),
		Recipient:      r.Recipient,
		Sender:         r.Sender,
		Type:           r.Type,
		Title:          r.Title,
		Message:        r.Message,
		RelatedContent: r.RelatedContent,
		Metadata:       r.Metadata,
		Read:           r.Read,
		IsDeleted:      r.IsDeleted,
		CreatedAt:      r.CreatedAt,
	}
}

func (d recordDoc) toRecord() (*Record, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing record id %q: %w", d.ID, err)
	}
	return &Record{
		ID:             id,
		Recipient:      d.Recipient,
		Sender:         d.Sender,
		Type:           d.Type,
		Title:          d.Title,
		Message:        d.Message,
		RelatedContent: d.RelatedContent,
		Metadata:       d.Metadata,
		Read:           d.Read,
		IsDeleted:      d.IsDeleted,
		CreatedAt:      d.CreatedAt,
	}, nil
}

// Create implements Storage.
func (s *MongoStorage) Create(ctx context.Context, record *Record) error {
	if record == nil {
		return ErrRecordNotFound
	}
	if _, err := s.coll.InsertOne(ctx, toRecordDoc(record)); err != nil {
		return fmt.Errorf("inserting notification record %s: %w", record.ID, err)
	}
	return nil
}

// ListSince implements Storage.
func (s *MongoStorage) ListSince(ctx context.Context, userID string, since time.Time) ([]*Record, error) {
	filter := bson.M{
		"recipient":  userID,
		"is_deleted": false,
		"created_at": bson.M{"$gte": since},
	}

	cursor, err := s.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("querying notifications for user %q: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var out []*Record
	for cursor.Next(ctx) {
		var doc recordDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding notification record: %w", err)
		}
		record, err := doc.toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}

	return out, nil
}

// MarkRead implements Storage.
func (s *MongoStorage) MarkRead(ctx context.Context, recordID uuid.UUID) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": recordID.String()},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return fmt.Errorf("marking record %s read: %w", recordID, err)
	}
	if res.MatchedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// CountUnread implements Storage.
func (s *MongoStorage) CountUnread(ctx context.Context, userID string) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{
		"recipient":  userID,
		"read":       false,
		"is_deleted": false,
	})
	if err != nil {
		return 0, fmt.Errorf("counting unread for user %q: %w", userID, err)
	}
	return n, nil
}
