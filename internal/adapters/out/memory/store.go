// Package memory is an in-process document store. It backs local
// development, the default configuration and the scenario tests, and honours
// the same conditional-write contract as the database adapters.
package memory

import (
	"context"
	"sync"

	"courierdesk/internal/adapters/out/changefeed"
	"courierdesk/internal/core/domain/model/chat"
	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/core/domain/model/user"
	"courierdesk/internal/core/ports"
)

var _ ports.UnitOfWorkFactory = (*Store)(nil)

// Store holds committed documents. Write transactions are serialized by
// txMu and stage their writes until Commit; readers only take mu, so they
// never observe uncommitted state.
type Store struct {
	txMu sync.Mutex

	mu       sync.RWMutex
	tasks    map[kernel.UUID]task.State
	messages map[kernel.UUID][]chat.State
	profiles map[kernel.UserID]*user.Profile

	feed ports.ChangeFeed
}

// NewStore creates an empty store that publishes committed changes to feed.
// feed may be nil.
func NewStore(feed ports.ChangeFeed) *Store {
	return &Store{
		tasks:    make(map[kernel.UUID]task.State),
		messages: make(map[kernel.UUID][]chat.State),
		profiles: make(map[kernel.UserID]*user.Profile),
		feed:     feed,
	}
}

func (s *Store) Create() ports.UnitOfWork {
	return &UnitOfWork{store: s}
}

// mutation is a staged write applied under the store lock on commit.
type mutation func(s *Store)

// UnitOfWork implements ports.UnitOfWork. Outside Begin/Commit every write
// is applied and published immediately.
type UnitOfWork struct {
	store  *Store
	active bool
	staged []mutation
	outbox changefeed.Outbox
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	if u.active {
		return nil
	}
	u.store.txMu.Lock()
	u.active = true
	return nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}

	u.store.mu.Lock()
	for _, m := range u.staged {
		m(u.store)
	}
	u.store.mu.Unlock()

	u.finish()
	return u.outbox.Flush(ctx, u.store.feed)
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.outbox.Discard()
	u.finish()
	return nil
}

func (u *UnitOfWork) TaskRepository() ports.TaskRepository {
	return &TaskRepository{uow: u}
}

func (u *UnitOfWork) MessageRepository() ports.MessageRepository {
	return &MessageRepository{uow: u}
}

func (u *UnitOfWork) ProfileRepository() ports.ProfileRepository {
	return &ProfileRepository{uow: u}
}

func (u *UnitOfWork) finish() {
	u.staged = nil
	u.active = false
	u.store.txMu.Unlock()
}

// apply stages m inside a transaction, otherwise applies and publishes it
// right away. Callers have already validated m against committed state.
func (u *UnitOfWork) apply(ctx context.Context, m mutation, change *ports.Change) error {
	if change != nil {
		u.outbox.Record(*change)
	}
	if u.active {
		u.staged = append(u.staged, m)
		return nil
	}

	u.store.mu.Lock()
	m(u.store)
	u.store.mu.Unlock()
	return u.outbox.Flush(ctx, u.store.feed)
}
