// Package workflow drives the admin console: opening forms, submitting them,
// bulk status changes and the outbound message templates.
package workflow

import (
	"errors"
	"time"

	"github.com/jaybesin/logistics-console/internal/db"
	"github.com/jaybesin/logistics-console/internal/events"
	"github.com/jaybesin/logistics-console/internal/models"
	"github.com/jaybesin/logistics-console/internal/shipment"
)

// maxTrackingAttempts bounds tracking number regeneration on create.
const maxTrackingAttempts = 5

// ValidationError is returned for rejected input. Nothing reaches the store.
type ValidationError = shipment.ValidationError

var (
	ErrTrackingCollision = errors.New("could not allocate a unique tracking number")
	ErrUnknownEntity     = errors.New("unknown entity type")
	ErrUnknownMode       = errors.New("unknown form mode")
	ErrEmptyCart         = errors.New("cart is empty")
)

// SettingsProvider returns the settings currently in effect.
type SettingsProvider interface {
	Settings() models.Settings
}

// StaticSettings serves a fixed value.
type StaticSettings models.Settings

func (s StaticSettings) Settings() models.Settings { return models.Settings(s) }

// Notifier receives background events. *events.Dispatcher implements it.
type Notifier interface {
	Notify(job events.NotificationJob)
	BroadcastStatus(ev events.StatusEvent)
}

type noopNotifier struct{}

func (noopNotifier) Notify(events.NotificationJob)      {}
func (noopNotifier) BroadcastStatus(events.StatusEvent) {}

// Controller owns every admin write.
type Controller struct {
	store    db.Store
	settings SettingsProvider
	notifier Notifier
	rng      shipment.Rand
	now      func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier routes notices and status broadcasts to n.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithRand replaces the tracking number source.
func WithRand(r shipment.Rand) Option {
	return func(c *Controller) { c.rng = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController creates a controller over store. A nil settings provider serves the defaults.
func NewController(store db.Store, settings SettingsProvider, opts ...Option) *Controller {
	if settings == nil {
		settings = StaticSettings(models.DefaultSettings())
	}
	c := &Controller{
		store:    store,
		settings: settings,
		notifier: noopNotifier{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) trackingNumber() string {
	return shipment.GenerateTrackingNumber(c.rng)
}
