package commands

import (
	"context"

	"courierdesk/internal/core/ports"
)

// StartTrackingCommandHandler starts or resumes a delivery. Streaming begins
// only after the InProgress status is committed, so the first sample can
// never be rejected by the store.
type StartTrackingCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	tracker    Tracker
}

// NewStartTrackingCommandHandler accepts a nil tracker when positions are
// pushed by clients instead of produced by the server.
func NewStartTrackingCommandHandler(uowFactory ports.UnitOfWorkFactory, tracker Tracker) StartTrackingCommandHandler {
	return StartTrackingCommandHandler{
		uowFactory: uowFactory,
		tracker:    tracker,
	}
}

func (h StartTrackingCommandHandler) Handle(ctx context.Context, cmd StartTrackingCommand) error {
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

	if err = t.Start(cmd.ActorID()); err != nil {
		return err
	}

	if err = repo.Update(ctx, t); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if h.tracker != nil {
		h.tracker.Begin(ctx, t)
	}
	return nil
}
