// Package postgres provides the GORM-based implementation of the Unit of
// Work pattern.
//
// A unit of work wraps one database transaction shared by the task, message
// and profile repositories. Repositories report every committed change to
// the unit of work, which buffers them in an outbox and publishes them to
// the change feed only after Commit succeeds.
//
// Usage:
//
//	factory := postgres.NewGormUnitOfWorkFactory(db, feed)
//	uow := factory.Create()
//
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() {
//	    _ = uow.Rollback(ctx)
//	}()
//
//	if err := uow.TaskRepository().Update(ctx, t); err != nil {
//	    return err
//	}
//
//	return uow.Commit(ctx)
//
// Outside Begin/Commit every repository call runs on the plain connection
// and its change is published right away. Queries use this mode.
//
// Concurrency Considerations:
//   - Each UnitOfWork instance owns its transaction; do not share one between goroutines
//   - Task writes are conditional on the stored version, so two transactions
//     racing on one task cannot both commit
//   - Message appends lock the parent task row to keep the log ordered
package postgres

import (
	"context"

	"courierdesk/internal/adapters/out/changefeed"
	"courierdesk/internal/adapters/out/postgres/messagerepo"
	"courierdesk/internal/adapters/out/postgres/profilerepo"
	"courierdesk/internal/adapters/out/postgres/taskrepo"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"

	"gorm.io/gorm"
)

var _ ports.UnitOfWorkFactory = (*GormUnitOfWorkFactory)(nil)

// GormUnitOfWorkFactory creates UnitOfWork instances sharing one connection
// pool and one change feed.
type GormUnitOfWorkFactory struct {
	db   *gorm.DB
	feed ports.ChangeFeed
}

// NewGormUnitOfWorkFactory accepts a nil feed when nobody subscribes to
// changes.
//
// Example:
//
//	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
//	if err != nil {
//	    return err
//	}
//	factory := NewGormUnitOfWorkFactory(db, hub)
func NewGormUnitOfWorkFactory(db *gorm.DB, feed ports.ChangeFeed) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db, feed: feed}
}

func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:   f.db,
		feed: f.feed,
	}
}

// GormUnitOfWork coordinates one database transaction and the changes it
// produces.
type GormUnitOfWork struct {
	db     *gorm.DB
	tx     *gorm.DB
	feed   ports.ChangeFeed
	outbox changefeed.Outbox
}

// Begin starts a transaction. Calling it again on an active unit of work is
// a no-op.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	tx := uow.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return errs.NewStoreUnavailableError("begin transaction", tx.Error)
	}

	uow.tx = tx
	return nil
}

// Commit makes the transaction permanent and then publishes its changes.
func (uow *GormUnitOfWork) Commit(ctx context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	if err != nil {
		uow.outbox.Discard()
		return errs.NewStoreUnavailableError("commit transaction", err)
	}

	return uow.outbox.Flush(ctx, uow.feed)
}

// Rollback discards the transaction and every change recorded in it.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	uow.outbox.Discard()
	err := uow.tx.Rollback().Error
	uow.tx = nil
	return err
}

func (uow *GormUnitOfWork) TaskRepository() ports.TaskRepository {
	return taskrepo.NewGormTaskRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) MessageRepository() ports.MessageRepository {
	return messagerepo.NewGormMessageRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) ProfileRepository() ports.ProfileRepository {
	return profilerepo.NewGormProfileRepository(uow.conn())
}

// TrackChange is called by repositories after a successful write. Inside a
// transaction the change waits for Commit; otherwise it is published now.
func (uow *GormUnitOfWork) TrackChange(ctx context.Context, change ports.Change) error {
	uow.outbox.Record(change)
	if uow.tx != nil {
		return nil
	}
	return uow.outbox.Flush(ctx, uow.feed)
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}

// Migrate creates or updates the tables used by the repositories.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&taskrepo.TaskDTO{}, &messagerepo.MessageDTO{}, &profilerepo.ProfileDTO{})
}
