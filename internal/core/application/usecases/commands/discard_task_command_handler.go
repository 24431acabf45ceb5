package commands

import (
	"context"

	"courierdesk/internal/core/ports"
)

// DiscardTaskCommandHandler lets a customer remove a Delivered task, rated
// or not, together with its chat log.
type DiscardTaskCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewDiscardTaskCommandHandler(uowFactory ports.UnitOfWorkFactory) DiscardTaskCommandHandler {
	return DiscardTaskCommandHandler{uowFactory: uowFactory}
}

func (h DiscardTaskCommandHandler) Handle(ctx context.Context, cmd DiscardTaskCommand) error {
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

	if err = t.EnsureDiscardable(cmd.ActorID()); err != nil {
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
