package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jaybesin/logistics-console/internal/db"
	"github.com/jaybesin/logistics-console/internal/models"
	"github.com/jaybesin/logistics-console/internal/shipment"
)

func startCatalog(t *testing.T, store db.Store) (*Catalog, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	c := New(store)
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-c.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("catalog never became ready")
	}
	return c, done
}

func TestCatalog_Defaults(t *testing.T) {
	c, _ := startCatalog(t, db.NewMemoryStore())

	assert.Empty(t, c.Shipments())
	assert.Equal(t, models.DefaultSettings(), c.Settings())

	names := make([]string, 0)
	for _, cat := range c.Categories() {
		names = append(names, cat.Name)
	}
	assert.Equal(t, models.DefaultCategories, names)
}

func TestCatalog_FollowsWrites(t *testing.T) {
	store := db.NewMemoryStore()
	c, _ := startCatalog(t, store)
	ctx := context.Background()

	s := shipment.BuildShipmentPayload(shipment.Form{
		TrackingNumber: "JB-CN-123456",
		ConsigneeName:  "Ama",
		RatePerCBM:     450,
		Items:          []shipment.ItemForm{{CBM: 2}},
	}, time.Now())
	_, err := store.Create(ctx, db.Shipments, s)
	require.NoError(t, err)
	require.NoError(t, store.MergeSettings(ctx, bson.M{"currency_rate": 16.4}))
	_, err = store.Create(ctx, db.Categories, models.Category{Name: "TOOLS"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		list := c.Shipments()
		return len(list) == 1 && list[0].TotalCost == 900
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return c.Settings().CurrencyRate == 16.4
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		cats := c.Categories()
		return len(cats) == 1 && cats[0].Name == "TOOLS"
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "Ecobank Ghana", c.Settings().BankName)
	assert.False(t, c.UpdatedAt(db.Shipments).IsZero())
}

func TestCatalog_ShipmentsIsACopy(t *testing.T) {
	store := db.NewMemoryStore()
	_, err := store.Create(context.Background(), db.Shipments, models.Shipment{TrackingNumber: "JB-CN-111111"})
	require.NoError(t, err)
	c, _ := startCatalog(t, store)

	list := c.Shipments()
	require.Len(t, list, 1)
	list[0].TrackingNumber = "changed"
	assert.Equal(t, "JB-CN-111111", c.Shipments()[0].TrackingNumber)
}

// failingStore delivers an error snapshot on shipments.
type failingStore struct {
	db.Store
}

func (f failingStore) Subscribe(ctx context.Context, collection string) (<-chan db.Snapshot, error) {
	out := make(chan db.Snapshot, 1)
	if collection == db.Shipments {
		out <- db.Snapshot{Collection: collection, Err: errors.New("change stream closed")}
		close(out)
		return out, nil
	}
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out, nil
}

func TestCatalog_RunReturnsFeedError(t *testing.T) {
	c := New(failingStore{})
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "change stream closed")
	assert.Equal(t, models.DefaultSettings(), c.Settings())
}

func TestCatalog_SubscribeError(t *testing.T) {
	c := New(unknownStore{})
	err := c.Run(context.Background())
	assert.ErrorIs(t, err, db.ErrUnknownCollection)
}

type unknownStore struct {
	db.Store
}

func (unknownStore) Subscribe(context.Context, string) (<-chan db.Snapshot, error) {
	return nil, db.ErrUnknownCollection
}
