package commands

import (
	"context"
	"errors"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/core/domain/services"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"
)

// ClaimTaskCommandHandler arbitrates concurrent claims.
//
// The arbiter runs on the task as read, and the result is written with a
// write conditioned on the version that was read. When two couriers race,
// exactly one conditional write succeeds. The loser re-reads the task and
// receives the error the arbiter derives from the winner's state, usually
// InvalidTransition. The losing write is never retried.
//
// Example:
//
//	cmd, _ := NewClaimTaskCommand(taskID, "courier-1", "c1@example.com")
//	err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, errs.ErrInvalidTransition):
//	    // somebody else was faster
//	case errors.Is(err, errs.ErrUnauthorized):
//	    // customer tried to claim their own task
//	}
type ClaimTaskCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	arbiter    services.ClaimArbiter
}

func NewClaimTaskCommandHandler(uowFactory ports.UnitOfWorkFactory) ClaimTaskCommandHandler {
	return ClaimTaskCommandHandler{
		uowFactory: uowFactory,
		arbiter:    services.NewClaimArbiter(),
	}
}

func (h ClaimTaskCommandHandler) Handle(ctx context.Context, cmd ClaimTaskCommand) error {
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

	courier, err := participantFor(ctx, uow.ProfileRepository(), cmd.ActorID(), cmd.CourierEmail(), kernel.RoleCourier)
	if err != nil {
		return err
	}

	repo := uow.TaskRepository()
	t, err := repo.Get(ctx, cmd.TaskID())
	if err != nil {
		return err
	}

	outcome, err := h.arbiter.Arbitrate(t, courier)
	if err != nil {
		return err
	}
	if outcome == services.ClaimAlreadyHeld {
		return nil
	}

	if err = repo.Update(ctx, t); err != nil {
		if errors.Is(err, errs.ErrStaleObject) {
			return h.explainLostRace(ctx, repo, cmd.TaskID(), courier, err)
		}
		return err
	}

	return uow.Commit(ctx)
}

// explainLostRace re-reads the task after a failed conditional write and
// reports why the claim can no longer succeed.
func (h ClaimTaskCommandHandler) explainLostRace(
	ctx context.Context,
	repo ports.TaskRepository,
	id kernel.UUID,
	courier task.Participant,
	staleErr error,
) error {
	fresh, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	outcome, err := h.arbiter.Arbitrate(fresh, courier)
	if err != nil {
		return err
	}
	if outcome == services.ClaimAlreadyHeld {
		return nil
	}
	return staleErr
}
