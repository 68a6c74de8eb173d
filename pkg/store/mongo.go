package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/causalite/causalite/pkg/observability"
)

// MongoConfig configures the MongoDB-backed run store.
type MongoConfig struct {
	URI        string // connection string
	Database   string // defaults to "causalite"
	Collection string // defaults to "runs"
}

// MongoStore keeps runs as queryable documents in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := cfg.Database
	if db == "" {
		db = "causalite"
	}
	coll := cfg.Collection
	if coll == "" {
		coll = "runs"
	}
	return &MongoStore{client: client, coll: client.Database(db).Collection(coll)}, nil
}

func (s *MongoStore) Save(ctx context.Context, rec *Record) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": rec.ID}, rec,
		options.Replace().SetUpsert(true))
	if err != nil {
		observability.Store().OnError(ctx, "mongo", "save", err)
		return fmt.Errorf("save run: %w", err)
	}
	observability.Store().OnSave(ctx, "mongo", rec.ID)
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		observability.Store().OnLoad(ctx, "mongo", id, false)
		return nil, ErrNotFound
	}
	if err != nil {
		observability.Store().OnError(ctx, "mongo", "get", err)
		return nil, fmt.Errorf("get run: %w", err)
	}
	observability.Store().OnLoad(ctx, "mongo", id, true)
	return &rec, nil
}

func (s *MongoStore) List(ctx context.Context) ([]*Record, error) {
	cur, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer cur.Close(ctx)

	var out []*Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
