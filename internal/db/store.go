package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jaybesin/logistics-console/internal/models"
)

// DefaultWriteTimeout bounds every write unless overridden with WithWriteTimeout.
const DefaultWriteTimeout = 10 * time.Second

var (
	ErrNotFound          = errors.New("document not found")
	ErrWriteTimeout      = errors.New("write timed out")
	ErrUnknownCollection = errors.New("unknown collection")
)

// Document is a raw stored record.
type Document = bson.M

// Snapshot is the full content of a collection at one point in time. A
// snapshot replaces whatever the subscriber held before.
type Snapshot struct {
	Collection string
	Docs       []Document
	At         time.Time
	Err        error
}

// Store is the persistence boundary for every console collection.
type Store interface {
	// Subscribe delivers an initial snapshot and then a fresh one after every
	// change. The channel is closed when ctx is done or after an error snapshot.
	Subscribe(ctx context.Context, collection string) (<-chan Snapshot, error)
	List(ctx context.Context, collection string) ([]Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	FindOne(ctx context.Context, collection, field string, value interface{}) (Document, error)
	Create(ctx context.Context, collection string, data interface{}) (string, error)
	// Update merges fields into the document. Unnamed fields are untouched.
	Update(ctx context.Context, collection, id string, fields bson.M) error
	Delete(ctx context.Context, collection, id string) error
	// BulkUpdate applies fields to every id or to none of them.
	BulkUpdate(ctx context.Context, collection string, ids []string, fields bson.M) error
	MergeSettings(ctx context.Context, fields bson.M) error
	LoadSettings(ctx context.Context) (models.Settings, error)
}

// Option configures a store.
type Option func(*options)

type options struct {
	writeTimeout time.Duration
	latency      time.Duration
}

func defaultOptions() options {
	return options{writeTimeout: DefaultWriteTimeout}
}

// WithWriteTimeout overrides DefaultWriteTimeout. Non-positive values are ignored.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}

// WithLatency delays every in-memory write, simulating a remote store.
func WithLatency(d time.Duration) Option {
	return func(o *options) { o.latency = d }
}

// wrapWriteErr names the failed operation and maps deadline failures onto ErrWriteTimeout.
func wrapWriteErr(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w", op, collection, ErrWriteTimeout)
	}
	return fmt.Errorf("%s %s: %w", op, collection, err)
}

// IDString returns the document id as a string.
func IDString(doc Document) string {
	switch id := doc["_id"].(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// idValue turns an external id into the stored _id value.
func idValue(id string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

// toDocument converts any bson-marshalable value into a detached Document.
func toDocument(v interface{}) (Document, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DecodeOne decodes a stored document into T.
func DecodeOne[T any](doc Document) (T, error) {
	var out T
	raw, err := bson.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("marshal document: %w", err)
	}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

// DecodeAll decodes every document, failing on the first bad one.
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := DecodeOne[T](d)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", IDString(d), err)
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeShipments decodes shipments and recomputes their cached totals so a
// stale stored value is never shown.
func DecodeShipments(docs []Document) ([]models.Shipment, error) {
	list, err := DecodeAll[models.Shipment](docs)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].RefreshTotals()
	}
	return list, nil
}

// DecodeShipment is DecodeShipments for one document.
func DecodeShipment(doc Document) (models.Shipment, error) {
	s, err := DecodeOne[models.Shipment](doc)
	if err != nil {
		return s, err
	}
	s.RefreshTotals()
	return s, nil
}

// SettingsFrom overlays a stored settings document onto the defaults. A nil
// document yields the defaults.
func SettingsFrom(doc Document) (models.Settings, error) {
	settings := models.DefaultSettings()
	if doc == nil {
		return settings, nil
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return settings, fmt.Errorf("marshal settings: %w", err)
	}
	if err := bson.Unmarshal(raw, &settings); err != nil {
		return models.DefaultSettings(), fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

// dedupe keeps the first occurrence of each id.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// createdAt reads created_at from either a decoded or a freshly built document.
func createdAt(doc Document) time.Time {
	switch v := doc["created_at"].(type) {
	case primitive.DateTime:
		return v.Time()
	case time.Time:
		return v
	default:
		return time.Time{}
	}
}
