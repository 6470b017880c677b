package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jaybesin/logistics-console/internal/models"
)

// ConnectMongo connects to MongoDB at uri and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	client, err := mongo.Connect(ctx, mopts.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoStore implements Store on a MongoDB database. Subscriptions use change
// streams and BulkUpdate uses a transaction, so both need a replica set.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	opts   options
}

// NewMongoStore wraps database dbName of client.
func NewMongoStore(client *mongo.Client, dbName string, opts ...Option) *MongoStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MongoStore{client: client, db: client.Database(dbName), opts: o}
}

// Users returns the user collection backed by the same database.
func (s *MongoStore) Users() *MongoUserCollection {
	return &MongoUserCollection{Collection: s.db.Collection(Users)}
}

func (s *MongoStore) collection(name string) (*mongo.Collection, error) {
	if s.db == nil {
		return nil, fmt.Errorf("mongo database is nil")
	}
	if !KnownCollection(name) {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownCollection)
	}
	return s.db.Collection(name), nil
}

// Subscribe implements Store with a change stream per subscription.
func (s *MongoStore) Subscribe(ctx context.Context, collection string) (<-chan Snapshot, error) {
	coll, err := s.collection(collection)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	stream, err := coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}

	signal := make(chan struct{}, 1)
	errs := make(chan error, 1)
	out := make(chan Snapshot, 1)

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			notify(signal)
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			errs <- err
		}
	}()
	go runFeed(ctx, collection, out, signal, errs, func(ctx context.Context) ([]Document, error) {
		return s.List(ctx, collection)
	})
	return out, nil
}

// List implements Store.
func (s *MongoStore) List(ctx context.Context, collection string) ([]Document, error) {
	coll, err := s.collection(collection)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	findOpts := mopts.Find()
	if newestFirst(collection) {
		findOpts.SetSort(bson.D{{Key: "created_at", Value: -1}})
	}
	cursor, err := coll.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	docs := []Document{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	return s.findOne(ctx, collection, bson.M{"_id": idValue(id)})
}

// FindOne implements Store.
func (s *MongoStore) FindOne(ctx context.Context, collection, field string, value interface{}) (Document, error) {
	return s.findOne(ctx, collection, bson.M{field: value})
}

func (s *MongoStore) findOne(ctx context.Context, collection string, filter bson.M) (Document, error) {
	coll, err := s.collection(collection)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	var doc Document
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("find %s: %w", collection, ErrNotFound)
		}
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	return doc, nil
}

// Create implements Store.
func (s *MongoStore) Create(ctx context.Context, collection string, data interface{}) (string, error) {
	coll, err := s.collection(collection)
	if err != nil {
		return "", fmt.Errorf("create: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.writeTimeout)
	defer cancel()

	res, err := coll.InsertOne(ctx, data)
	if err != nil {
		return "", wrapWriteErr("create", collection, err)
	}
	return IDString(Document{"_id": res.InsertedID}), nil
}

// Update implements Store.
func (s *MongoStore) Update(ctx context.Context, collection, id string, fields bson.M) error {
	coll, err := s.collection(collection)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.writeTimeout)
	defer cancel()

	res, err := coll.UpdateOne(ctx, bson.M{"_id": idValue(id)}, bson.M{"$set": fields})
	if err != nil {
		return wrapWriteErr("update", collection, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update %s %s: %w", collection, id, ErrNotFound)
	}
	return nil
}

// Delete implements Store.
func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	coll, err := s.collection(collection)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.writeTimeout)
	defer cancel()

	res, err := coll.DeleteOne(ctx, bson.M{"_id": idValue(id)})
	if err != nil {
		return wrapWriteErr("delete", collection, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete %s %s: %w", collection, id, ErrNotFound)
	}
	return nil
}

// BulkUpdate implements Store inside a single transaction. The transaction is
// aborted unless every id matched.
func (s *MongoStore) BulkUpdate(ctx context.Context, collection string, ids []string, fields bson.M) error {
	coll, err := s.collection(collection)
	if err != nil {
		return fmt.Errorf("bulk update: %w", err)
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}
	keys := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, idValue(id))
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.writeTimeout)
	defer cancel()

	session, err := s.client.StartSession()
	if err != nil {
		return wrapWriteErr("bulk update", collection, err)
	}
	defer session.EndSession(context.Background())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := coll.UpdateMany(sc, bson.M{"_id": bson.M{"$in": keys}}, bson.M{"$set": fields})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount != int64(len(keys)) {
			return nil, fmt.Errorf("matched %d of %d: %w", res.MatchedCount, len(keys), ErrNotFound)
		}
		return nil, nil
	})
	return wrapWriteErr("bulk update", collection, err)
}

// MergeSettings implements Store with an upserting $set on config/global.
func (s *MongoStore) MergeSettings(ctx context.Context, fields bson.M) error {
	coll, err := s.collection(Config)
	if err != nil {
		return fmt.Errorf("merge settings: %w", err)
	}
	if len(fields) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.writeTimeout)
	defer cancel()

	_, err = coll.UpdateOne(ctx, bson.M{"_id": models.SettingsID}, bson.M{"$set": fields}, mopts.Update().SetUpsert(true))
	return wrapWriteErr("merge", Config, err)
}

// LoadSettings implements Store. A missing document yields the defaults.
func (s *MongoStore) LoadSettings(ctx context.Context) (models.Settings, error) {
	doc, err := s.Get(ctx, Config, models.SettingsID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.DefaultSettings(), nil
		}
		return models.DefaultSettings(), fmt.Errorf("load settings: %w", err)
	}
	return SettingsFrom(doc)
}
