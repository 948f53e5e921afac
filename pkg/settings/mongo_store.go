package settings

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "notification_settings"

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a settings store backed by the given database.
func NewMongoStore(db *mongo.Database, collection string) (*MongoStore, error) {
	if db == nil {
		return nil, fmt.Errorf("settings store: nil database")
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &MongoStore{coll: db.Collection(collection)}, nil
}

// EnsureIndexes creates the index backing the digest-user query. Safe to
// call on every startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "digest.frequency", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("creating settings indexes: %w", err)
	}
	return nil
}

// GetOrCreate implements Store. The upsert makes concurrent first accesses
// for the same user converge on a single default document.
func (s *MongoStore) GetOrCreate(ctx context.Context, userID string) (*Setting, error) {
	if userID == "" {
		return nil, ErrUserIDEmpty
	}

	defaults := Defaults(userID)
	now := time.Now()
	defaults.CreatedAt = now
	defaults.UpdatedAt = now

	var setting Setting
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$setOnInsert": defaults},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&setting)
	if err != nil {
		return nil, fmt.Errorf("loading settings for user %q: %w", userID, err)
	}

	return &setting, nil
}

// Update implements Store.
func (s *MongoStore) Update(ctx context.Context, setting *Setting) error {
	if setting == nil || setting.UserID == "" {
		return ErrUserIDEmpty
	}

	stored := *setting
	stored.UpdatedAt = time.Now()

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": stored.UserID}, stored,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("updating settings for user %q: %w", stored.UserID, err)
	}
	return nil
}

// ListDigestUsers implements Store.
func (s *MongoStore) ListDigestUsers(ctx context.Context, cadence Cadence) ([]*Setting, error) {
	if !cadence.Valid() {
		return nil, ErrInvalidCadence
	}

	filter := bson.M{
		"digest.frequency": cadence,
		"$or": bson.A{
			bson.M{"email.frequency": FrequencyDigest},
			bson.M{"push.frequency": FrequencyDigest},
			bson.M{"sms.frequency": FrequencyDigest},
		},
	}

	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("querying digest users: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*Setting
	for cursor.Next(ctx) {
		var setting Setting
		if err := cursor.Decode(&setting); err != nil {
			return nil, fmt.Errorf("decoding setting: %w", err)
		}
		out = append(out, &setting)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterating digest users: %w", err)
	}

	return out, nil
}
