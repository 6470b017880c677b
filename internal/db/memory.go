package db

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jaybesin/logistics-console/internal/models"
)

// MemoryStore is an in-process Store used by tests and STORE=memory dev mode.
type MemoryStore struct {
	mu    sync.RWMutex
	opts  options
	data  map[string]map[string]Document
	order map[string][]string
	subs  map[string]map[chan struct{}]struct{}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		opts:  o,
		data:  make(map[string]map[string]Document),
		order: make(map[string][]string),
		subs:  make(map[string]map[chan struct{}]struct{}),
	}
}

// Subscribe implements Store.
func (m *MemoryStore) Subscribe(ctx context.Context, collection string) (<-chan Snapshot, error) {
	if !KnownCollection(collection) {
		return nil, fmt.Errorf("subscribe %s: %w", collection, ErrUnknownCollection)
	}
	signal := make(chan struct{}, 1)
	out := make(chan Snapshot, 1)

	m.mu.Lock()
	if m.subs[collection] == nil {
		m.subs[collection] = make(map[chan struct{}]struct{})
	}
	m.subs[collection][signal] = struct{}{}
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			delete(m.subs[collection], signal)
			m.mu.Unlock()
		}()
		runFeed(ctx, collection, out, signal, nil, func(ctx context.Context) ([]Document, error) {
			return m.List(ctx, collection)
		})
	}()
	return out, nil
}

// List implements Store.
func (m *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	if !KnownCollection(collection) {
		return nil, fmt.Errorf("list %s: %w", collection, ErrUnknownCollection)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]Document, 0, len(m.order[collection]))
	for _, key := range m.order[collection] {
		cp, err := toDocument(m.data[collection][key])
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", collection, err)
		}
		docs = append(docs, cp)
	}
	if newestFirst(collection) {
		// order holds insertion order; reverse it so equal timestamps still
		// list the later insert first.
		for i, j := 0, len(docs)-1; i < j; i, j = i+1, j-1 {
			docs[i], docs[j] = docs[j], docs[i]
		}
		sort.SliceStable(docs, func(i, j int) bool {
			return createdAt(docs[i]).After(createdAt(docs[j]))
		})
	}
	return docs, nil
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("get %s: %w", collection, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.data[collection][id]
	if !ok {
		return nil, fmt.Errorf("get %s %s: %w", collection, id, ErrNotFound)
	}
	return toDocument(doc)
}

// FindOne implements Store. The first document in insertion order wins.
func (m *MemoryStore) FindOne(ctx context.Context, collection, field string, value interface{}) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	want, err := toDocument(bson.M{"v": value})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, key := range m.order[collection] {
		doc := m.data[collection][key]
		if reflect.DeepEqual(doc[field], want["v"]) {
			return toDocument(doc)
		}
	}
	return nil, fmt.Errorf("find %s %s=%v: %w", collection, field, value, ErrNotFound)
}

// Create implements Store.
func (m *MemoryStore) Create(ctx context.Context, collection string, data interface{}) (string, error) {
	if !KnownCollection(collection) {
		return "", fmt.Errorf("create %s: %w", collection, ErrUnknownCollection)
	}
	doc, err := toDocument(data)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", collection, err)
	}
	if oid, ok := doc["_id"].(primitive.ObjectID); !ok || oid.IsZero() {
		if _, isString := doc["_id"].(string); !isString {
			doc["_id"] = primitive.NewObjectID()
		}
	}
	id := IDString(doc)

	err = m.write(ctx, "create", collection, func() error {
		if _, exists := m.data[collection][id]; exists {
			return fmt.Errorf("duplicate id %s", id)
		}
		if m.data[collection] == nil {
			m.data[collection] = make(map[string]Document)
		}
		m.data[collection][id] = doc
		m.order[collection] = append(m.order[collection], id)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Update implements Store.
func (m *MemoryStore) Update(ctx context.Context, collection, id string, fields bson.M) error {
	set, err := toDocument(fields)
	if err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	return m.write(ctx, "update", collection, func() error {
		doc, ok := m.data[collection][id]
		if !ok {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		applySet(doc, set)
		return nil
	})
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	return m.write(ctx, "delete", collection, func() error {
		if _, ok := m.data[collection][id]; !ok {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		delete(m.data[collection], id)
		keys := m.order[collection]
		for i, k := range keys {
			if k == id {
				m.order[collection] = append(keys[:i:i], keys[i+1:]...)
				break
			}
		}
		return nil
	})
}

// BulkUpdate implements Store. Every id is checked before anything changes.
func (m *MemoryStore) BulkUpdate(ctx context.Context, collection string, ids []string, fields bson.M) error {
	set, err := toDocument(fields)
	if err != nil {
		return fmt.Errorf("bulk update %s: %w", collection, err)
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}
	return m.write(ctx, "bulk update", collection, func() error {
		for _, id := range ids {
			if _, ok := m.data[collection][id]; !ok {
				return fmt.Errorf("%s: %w", id, ErrNotFound)
			}
		}
		for _, id := range ids {
			applySet(m.data[collection][id], set)
		}
		return nil
	})
}

// MergeSettings implements Store.
func (m *MemoryStore) MergeSettings(ctx context.Context, fields bson.M) error {
	set, err := toDocument(fields)
	if err != nil {
		return fmt.Errorf("merge settings: %w", err)
	}
	return m.write(ctx, "merge", Config, func() error {
		if m.data[Config] == nil {
			m.data[Config] = make(map[string]Document)
		}
		doc, ok := m.data[Config][models.SettingsID]
		if !ok {
			doc = Document{"_id": models.SettingsID}
			m.data[Config][models.SettingsID] = doc
			m.order[Config] = append(m.order[Config], models.SettingsID)
		}
		applySet(doc, set)
		return nil
	})
}

// LoadSettings implements Store.
func (m *MemoryStore) LoadSettings(ctx context.Context) (models.Settings, error) {
	doc, err := m.Get(ctx, Config, models.SettingsID)
	if err != nil {
		if ctx.Err() == nil {
			return models.DefaultSettings(), nil
		}
		return models.DefaultSettings(), fmt.Errorf("load settings: %w", err)
	}
	return SettingsFrom(doc)
}

// write runs fn under the write lock, bounded by the write timeout, and wakes
// the collection's subscribers when fn succeeds.
func (m *MemoryStore) write(ctx context.Context, op, collection string, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.writeTimeout)
	defer cancel()

	if m.opts.latency > 0 {
		select {
		case <-time.After(m.opts.latency):
		case <-ctx.Done():
			return wrapWriteErr(op, collection, ctx.Err())
		}
	}
	if err := ctx.Err(); err != nil {
		return wrapWriteErr(op, collection, err)
	}

	m.mu.Lock()
	err := fn()
	var signals []chan struct{}
	if err == nil {
		for s := range m.subs[collection] {
			signals = append(signals, s)
		}
	}
	m.mu.Unlock()

	if err != nil {
		return wrapWriteErr(op, collection, err)
	}
	for _, s := range signals {
		notify(s)
	}
	return nil
}

// applySet mirrors $set, including dotted paths into nested documents.
func applySet(doc Document, set Document) {
	for key, value := range set {
		parts := strings.Split(key, ".")
		target := doc
		for _, p := range parts[:len(parts)-1] {
			next, ok := target[p].(bson.M)
			if !ok {
				next = bson.M{}
				target[p] = next
			}
			target = next
		}
		target[parts[len(parts)-1]] = value
	}
}
