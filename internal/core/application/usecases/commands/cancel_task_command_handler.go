package commands

import (
	"context"

	"courierdesk/internal/core/ports"
)

// CancelTaskCommandHandler deletes a Pending task. Cancelling is not a
// status transition: afterwards the task no longer exists.
type CancelTaskCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewCancelTaskCommandHandler(uowFactory ports.UnitOfWorkFactory) CancelTaskCommandHandler {
	return CancelTaskCommandHandler{uowFactory: uowFactory}
}

func (h CancelTaskCommandHandler) Handle(ctx context.Context, cmd CancelTaskCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.TaskRepository()
	t, err := repo.Get(ctx, cmd.TaskID())
	if err != nil {
		return err
	}

	if err = t.EnsureCancellable(cmd.ActorID()); err != nil {
		return err
	}

	if err = uow.MessageRepository().DeleteByTask(ctx, t.ID()); err != nil {
		return err
	}

	if err = repo.Delete(ctx, t); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
