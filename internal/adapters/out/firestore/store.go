// Package firestore stores tasks, chat messages and profiles in Cloud
// Firestore using the collection layout of the original web client:
//
//	deliveries/{taskId}
//	deliveries/{taskId}/messages/{messageId}
//	users/{uid}
//
// A unit of work stages its operations and replays them inside one
// Firestore transaction on Commit. Every operation first reads the
// documents it depends on and re-checks its precondition, so a concurrent
// writer turns into errs.StaleObjectError instead of a lost update.
package firestore

import (
	"context"
	"errors"

	"courierdesk/internal/adapters/out/changefeed"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	DeliveriesCollection = "deliveries"
	MessagesCollection   = "messages"
	UsersCollection      = "users"
)

var (
	ErrNoTransaction = errors.New("no active transaction")

	_ ports.UnitOfWorkFactory = (*Store)(nil)
)

// Store is the unit of work factory over one Firestore client.
type Store struct {
	client *fs.Client
	feed   ports.ChangeFeed
}

// NewStore accepts a nil feed.
func NewStore(client *fs.Client, feed ports.ChangeFeed) *Store {
	return &Store{client: client, feed: feed}
}

func (s *Store) Create() ports.UnitOfWork {
	return &UnitOfWork{store: s}
}

func (s *Store) deliveries() *fs.CollectionRef {
	return s.client.Collection(DeliveriesCollection)
}

func (s *Store) messages(taskID string) *fs.CollectionRef {
	return s.deliveries().Doc(taskID).Collection(MessagesCollection)
}

func (s *Store) users() *fs.CollectionRef {
	return s.client.Collection(UsersCollection)
}

// operation is one staged write. check runs first and may only read; write
// runs after every check of the transaction passed.
type operation struct {
	name  string
	check func(tx *fs.Transaction) error
	write func(tx *fs.Transaction) error
}

// UnitOfWork implements ports.UnitOfWork. Outside Begin/Commit each write
// runs in its own transaction right away.
type UnitOfWork struct {
	store  *Store
	active bool
	staged []operation
	outbox changefeed.Outbox
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	u.active = true
	return nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}

	staged := u.staged
	u.staged = nil
	u.active = false

	if err := u.run(ctx, "commit", staged); err != nil {
		u.outbox.Discard()
		return err
	}
	return u.outbox.Flush(ctx, u.store.feed)
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.staged = nil
	u.active = false
	u.outbox.Discard()
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

// apply stages op inside a transaction, otherwise runs and publishes it.
func (u *UnitOfWork) apply(ctx context.Context, op operation, change *ports.Change) error {
	if u.active {
		u.staged = append(u.staged, op)
		if change != nil {
			u.outbox.Record(*change)
		}
		return nil
	}

	if err := u.run(ctx, op.name, []operation{op}); err != nil {
		return err
	}
	if change != nil {
		u.outbox.Record(*change)
	}
	return u.outbox.Flush(ctx, u.store.feed)
}

func (u *UnitOfWork) run(ctx context.Context, name string, ops []operation) error {
	if len(ops) == 0 {
		return nil
	}

	err := u.store.client.RunTransaction(ctx, func(_ context.Context, tx *fs.Transaction) error {
		for _, op := range ops {
			if op.check == nil {
				continue
			}
			if err := op.check(tx); err != nil {
				return err
			}
		}
		for _, op := range ops {
			if err := op.write(tx); err != nil {
				return err
			}
		}
		return nil
	})
	return classify(name, err)
}

// classify passes domain errors through and wraps backend failures.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isDomainError(err):
		return err
	case status.Code(err) == codes.AlreadyExists:
		return errs.NewValueIsInvalidErrorWithCause(op, err)
	case status.Code(err) == codes.NotFound:
		return errs.NewObjectNotFoundErrorWithCause(op, "document", err)
	default:
		return errs.NewStoreUnavailableError(op, err)
	}
}

func isDomainError(err error) bool {
	return errors.Is(err, errs.ErrObjectNotFound) ||
		errors.Is(err, errs.ErrStaleObject) ||
		errors.Is(err, errs.ErrInvalidTransition) ||
		errors.Is(err, errs.ErrUnauthorized) ||
		errs.IsInvalidInput(err)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
