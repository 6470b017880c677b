// Package catalog keeps the server's in-memory view of the collections every
// request reads: shipments, settings and categories. Each view is replaced
// whole from store snapshots and never patched.
package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jaybesin/logistics-console/internal/db"
	"github.com/jaybesin/logistics-console/internal/models"
)

// watched lists the collections the catalog subscribes to.
var watched = []string{db.Shipments, db.Config, db.Categories}

// Catalog is safe for concurrent use.
type Catalog struct {
	store db.Store

	mu         sync.RWMutex
	shipments  []models.Shipment
	settings   models.Settings
	categories []models.Category
	updated    map[string]time.Time

	readyOnce map[string]*sync.Once
	pending   sync.WaitGroup
	ready     chan struct{}
}

// New creates an empty catalog serving default settings until Run delivers
// the first snapshots.
func New(store db.Store) *Catalog {
	c := &Catalog{
		store:     store,
		settings:  models.DefaultSettings(),
		updated:   make(map[string]time.Time),
		readyOnce: make(map[string]*sync.Once),
		ready:     make(chan struct{}),
	}
	for _, coll := range watched {
		c.readyOnce[coll] = &sync.Once{}
	}
	c.pending.Add(len(watched))
	go func() {
		c.pending.Wait()
		close(c.ready)
	}()
	return c
}

// Ready is closed once every watched collection has delivered a snapshot.
func (c *Catalog) Ready() <-chan struct{} {
	return c.ready
}

// Run subscribes to every watched collection and applies snapshots until ctx
// is done or a subscription fails. The last good view is kept after a failure.
func (c *Catalog) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, coll := range watched {
		coll := coll
		feed, err := c.store.Subscribe(ctx, coll)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", coll, err)
		}
		g.Go(func() error {
			for snap := range feed {
				if snap.Err != nil {
					return fmt.Errorf("%s feed: %w", coll, snap.Err)
				}
				if err := c.apply(snap); err != nil {
					log.WithField("collection", coll).WithError(err).Error("Failed to apply snapshot")
					continue
				}
				c.readyOnce[coll].Do(c.pending.Done)
			}
			return nil
		})
	}
	return g.Wait()
}

func (c *Catalog) apply(snap db.Snapshot) error {
	switch snap.Collection {
	case db.Shipments:
		list, err := db.DecodeShipments(snap.Docs)
		if err != nil {
			return err
		}
		c.swap(snap, func() { c.shipments = list })
	case db.Config:
		settings, err := db.SettingsFrom(findSettings(snap.Docs))
		if err != nil {
			return err
		}
		c.swap(snap, func() { c.settings = settings })
	case db.Categories:
		list, err := db.DecodeAll[models.Category](snap.Docs)
		if err != nil {
			return err
		}
		c.swap(snap, func() { c.categories = list })
	default:
		return fmt.Errorf("%w: %s", db.ErrUnknownCollection, snap.Collection)
	}
	log.WithFields(log.Fields{"collection": snap.Collection, "docs": len(snap.Docs)}).Debug("Snapshot applied")
	return nil
}

func (c *Catalog) swap(snap db.Snapshot, set func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set()
	c.updated[snap.Collection] = snap.At
}

func findSettings(docs []db.Document) db.Document {
	for _, d := range docs {
		if db.IDString(d) == models.SettingsID {
			return d
		}
	}
	return nil
}

// Shipments returns the current shipments, newest first. The slice is a copy.
func (c *Catalog) Shipments() []models.Shipment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Shipment, len(c.shipments))
	copy(out, c.shipments)
	return out
}

// Settings returns the settings in effect.
func (c *Catalog) Settings() models.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Categories returns the stored categories, or the default list with zero ids
// when none are stored.
func (c *Catalog) Categories() []models.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.categories) == 0 {
		out := make([]models.Category, 0, len(models.DefaultCategories))
		for _, name := range models.DefaultCategories {
			out = append(out, models.Category{Name: name})
		}
		return out
	}
	out := make([]models.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// UpdatedAt reports when a collection's view was last replaced.
func (c *Catalog) UpdatedAt(collection string) time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updated[collection]
}
