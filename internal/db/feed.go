package db

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// loadFunc reads a full snapshot of one collection.
type loadFunc func(ctx context.Context) ([]Document, error)

// runFeed is the delivery loop behind Subscribe. It loads a snapshot, offers it
// to out, then waits for the next change signal. out holds at most one
// snapshot; an undelivered one is replaced by the newer one so a slow reader
// only ever sees the latest state. The loop closes out when it returns.
func runFeed(ctx context.Context, collection string, out chan Snapshot, signal <-chan struct{}, errs <-chan error, load loadFunc) {
	defer close(out)
	for {
		docs, err := load(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			offer(out, Snapshot{Collection: collection, At: time.Now(), Err: err})
			log.WithError(err).WithField("collection", collection).Warn("subscription load failed")
			return
		}
		offer(out, Snapshot{Collection: collection, Docs: docs, At: time.Now()})

		select {
		case <-ctx.Done():
			return
		case err := <-errs:
			offer(out, Snapshot{Collection: collection, At: time.Now(), Err: err})
			log.WithError(err).WithField("collection", collection).Warn("subscription stream failed")
			return
		case <-signal:
		}
	}
}

// offer puts s on out without blocking, discarding a stale unread snapshot.
// runFeed is the only sender so the retry always succeeds.
func offer(out chan Snapshot, s Snapshot) {
	for {
		select {
		case out <- s:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}

// notify wakes a feed without blocking. Signals coalesce.
func notify(signal chan struct{}) {
	select {
	case signal <- struct{}{}:
	default:
	}
}
