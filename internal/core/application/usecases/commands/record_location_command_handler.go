package commands

import (
	"context"

	"courierdesk/internal/core/ports"
)

// RecordLocationCommandHandler persists a single position sample as a
// field-only write. It never changes the task status or version. Each call
// is independent: callers log failures and do not retry.
type RecordLocationCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewRecordLocationCommandHandler(uowFactory ports.UnitOfWorkFactory) RecordLocationCommandHandler {
	return RecordLocationCommandHandler{uowFactory: uowFactory}
}

func (h RecordLocationCommandHandler) Handle(ctx context.Context, cmd RecordLocationCommand) error {
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

	if err = t.RecordLocation(cmd.ActorID(), cmd.Sample()); err != nil {
		return err
	}

	if err = repo.UpdateLocation(ctx, t.ID(), cmd.ActorID(), cmd.Sample()); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
