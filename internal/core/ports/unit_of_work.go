package ports

import (
	"context"
)

// UnitOfWorkFactory creates a fresh UnitOfWork per command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is a business transaction boundary. Repositories obtained from
// it after Begin take part in the transaction. Changes recorded by the
// repositories are published to the ChangeFeed only after a successful
// Commit.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	TaskRepository() TaskRepository
	MessageRepository() MessageRepository
	ProfileRepository() ProfileRepository
}
