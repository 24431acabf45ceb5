package changefeed

import (
	"context"
	"sync"

	"courierdesk/internal/core/ports"
)

// Outbox buffers the changes made inside one unit of work. Repositories
// record into it, and the unit of work flushes it after a successful commit
// or discards it on rollback, so subscribers never observe uncommitted state.
type Outbox struct {
	mu      sync.Mutex
	pending []ports.Change
}

// Record remembers a change until the next Flush or Discard.
func (o *Outbox) Record(c ports.Change) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, c)
}

// Flush publishes the buffered changes to feed and empties the outbox. A nil
// feed only empties it.
func (o *Outbox) Flush(ctx context.Context, feed ports.ChangeFeed) error {
	o.mu.Lock()
	changes := o.pending
	o.pending = nil
	o.mu.Unlock()

	if feed == nil || len(changes) == 0 {
		return nil
	}
	return feed.Publish(ctx, changes...)
}

func (o *Outbox) Discard() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = nil
}

// Pending returns a copy of the buffered changes.
func (o *Outbox) Pending() []ports.Change {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]ports.Change(nil), o.pending...)
}
