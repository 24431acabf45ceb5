// Package changefeed implements ports.ChangeFeed.
//
// Hub is the in-process broadcast primitive. RedisFeed and PostgresFeed
// carry changes between processes and fan them out through a local Hub.
// Outbox collects the changes of one unit of work and publishes them after
// commit.
package changefeed

import (
	"context"
	"errors"
	"sync"

	"courierdesk/internal/core/ports"
)

// ErrFeedClosed is returned by Subscribe after Close.
var ErrFeedClosed = errors.New("change feed is closed")

var _ ports.ChangeFeed = (*Hub)(nil)

// Hub broadcasts every published change to all current subscribers.
//
// Each subscriber owns an unbounded queue drained by its own goroutine, so a
// slow reader delays only itself and Publish never blocks.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*subscriber)}
}

// Publish enqueues changes for every subscriber. Publishing to a closed hub
// is a no-op.
func (h *Hub) Publish(_ context.Context, changes ...ports.Change) error {
	if len(changes) == 0 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		s.push(changes)
	}
	return nil
}

// Subscribe registers a subscriber. The returned channel is closed once ctx
// is done or the hub is closed.
func (h *Hub) Subscribe(ctx context.Context) (<-chan ports.Change, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrFeedClosed
	}

	id := h.nextID
	h.nextID++
	s := newSubscriber()
	h.subs[id] = s

	go func() {
		s.pump(ctx)
		h.remove(id)
	}()

	return s.out, nil
}

// Close ends every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for _, s := range h.subs {
		s.stop()
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

type subscriber struct {
	mu       sync.Mutex
	queue    []ports.Change
	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	out      chan ports.Change
}

func newSubscriber() *subscriber {
	return &subscriber{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan ports.Change),
	}
}

func (s *subscriber) push(changes []ports.Change) {
	s.mu.Lock()
	s.queue = append(s.queue, changes...)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *subscriber) pump(ctx context.Context) {
	defer close(s.out)

	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, c := range batch {
			select {
			case s.out <- c:
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-s.wake:
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
}
