package template

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "notification_templates"

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a template store backed by the given database.
func NewMongoStore(db *mongo.Database, collection string) (*MongoStore, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil database", ErrTemplateInvalid)
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &MongoStore{coll: db.Collection(collection)}, nil
}

// GetActive implements Store.
func (s *MongoStore) GetActive(ctx context.Context, templateID string) (*Template, error) {
	var tpl Template
	err := s.coll.FindOne(ctx, bson.M{"_id": templateID}).Decode(&tpl)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, templateID)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching template %q: %w", templateID, err)
	}
	if !tpl.Active {
		return nil, fmt.Errorf("%w: %q", ErrTemplateInactive, templateID)
	}
	return &tpl, nil
}

// Put implements Store.
func (s *MongoStore) Put(ctx context.Context, tpl *Template) error {
	if tpl == nil {
		return fmt.Errorf("%w: nil template", ErrTemplateInvalid)
	}
	if err := tpl.Validate(); err != nil {
		return err
	}

	stored := *tpl
	now := time.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": stored.ID}, stored,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("storing template %q: %w", stored.ID, err)
	}
	return nil
}
