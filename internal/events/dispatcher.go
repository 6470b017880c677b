package events

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultDispatchTimeout bounds each background publish.
const DefaultDispatchTimeout = 5 * time.Second

// Dispatcher sends events in the background. Callers never see publish failures;
// they are logged.
type Dispatcher struct {
	notifications Publisher
	status        Publisher
	timeout       time.Duration
	wg            sync.WaitGroup
}

// NewDispatcher wires the two outbound channels. A nil publisher becomes Noop.
func NewDispatcher(notifications, status Publisher, timeout time.Duration) *Dispatcher {
	if notifications == nil {
		notifications = Noop{}
	}
	if status == nil {
		status = Noop{}
	}
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	return &Dispatcher{notifications: notifications, status: status, timeout: timeout}
}

// Notify queues a notification job keyed by tracking number.
func (d *Dispatcher) Notify(job NotificationJob) {
	d.send(d.notifications, "notification", job.TrackingNumber, job)
}

// BroadcastStatus publishes a shipment's current stage.
func (d *Dispatcher) BroadcastStatus(ev StatusEvent) {
	d.send(d.status, "status", ev.TrackingNumber, ev)
}

func (d *Dispatcher) send(p Publisher, kind, key string, value interface{}) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := p.Publish(ctx, key, value); err != nil {
			log.WithFields(log.Fields{
				"kind":            kind,
				"tracking_number": key,
			}).WithError(err).Error("Failed to dispatch event")
		}
	}()
}

// Wait blocks until every in-flight publish has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close waits for in-flight publishes and closes both publishers.
func (d *Dispatcher) Close() error {
	d.Wait()
	return errors.Join(d.notifications.Close(), d.status.Close())
}
