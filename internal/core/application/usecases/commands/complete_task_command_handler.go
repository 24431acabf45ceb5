package commands

import (
	"context"
	"time"

	"courierdesk/internal/core/ports"
)

// CompleteTaskCommandHandler marks a task Delivered, clears its location and
// stops streaming. See PauseTrackingCommandHandler for the ordering of the
// commit and the halt.
type CompleteTaskCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	tracker    Tracker
}

func NewCompleteTaskCommandHandler(uowFactory ports.UnitOfWorkFactory, tracker Tracker) CompleteTaskCommandHandler {
	return CompleteTaskCommandHandler{
		uowFactory: uowFactory,
		tracker:    tracker,
	}
}

func (h CompleteTaskCommandHandler) Handle(ctx context.Context, cmd CompleteTaskCommand) error {
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

	if err = t.Complete(cmd.ActorID(), time.Now()); err != nil {
		return err
	}

	if err = repo.Update(ctx, t); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if h.tracker != nil {
		h.tracker.Halt(t.ID(), t.Version())
	}
	return nil
}
