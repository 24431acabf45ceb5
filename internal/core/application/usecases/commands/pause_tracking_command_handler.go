package commands

import (
	"context"

	"courierdesk/internal/core/ports"
)

// PauseTrackingCommandHandler suspends a delivery.
//
// The stream is halted after the Paused status is committed. A sample
// produced in between is rejected by TaskRepository.UpdateLocation, which
// only writes while the task is InProgress, so no sample lands after the
// transition. The halt carries the committed version, so a resume that
// commits in between keeps its own stream.
type PauseTrackingCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	tracker    Tracker
}

func NewPauseTrackingCommandHandler(uowFactory ports.UnitOfWorkFactory, tracker Tracker) PauseTrackingCommandHandler {
	return PauseTrackingCommandHandler{
		uowFactory: uowFactory,
		tracker:    tracker,
	}
}

func (h PauseTrackingCommandHandler) Handle(ctx context.Context, cmd PauseTrackingCommand) error {
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

	if err = t.Pause(cmd.ActorID()); err != nil {
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
