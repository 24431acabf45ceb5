package commands

import (
	"context"
	"errors"
	"time"

	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"
)

// SubmitRatingCommandHandler writes the one-time rating.
//
// Two concurrent submissions both pass the in-memory write-once check, but
// only one versioned write lands. The other re-reads the task and reports
// task.ErrAlreadyRated, so the stored score is always the first one.
type SubmitRatingCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewSubmitRatingCommandHandler(uowFactory ports.UnitOfWorkFactory) SubmitRatingCommandHandler {
	return SubmitRatingCommandHandler{uowFactory: uowFactory}
}

func (h SubmitRatingCommandHandler) Handle(ctx context.Context, cmd SubmitRatingCommand) error {
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

	if err = t.EnsureRatable(cmd.ActorID()); err != nil {
		return err
	}
	rating, err := task.NewRating(cmd.Score(), time.Now())
	if err != nil {
		return err
	}
	if err = t.Rate(cmd.ActorID(), rating); err != nil {
		return err
	}

	if err = repo.Update(ctx, t); err != nil {
		if !errors.Is(err, errs.ErrStaleObject) {
			return err
		}
		fresh, getErr := repo.Get(ctx, cmd.TaskID())
		if getErr != nil {
			return getErr
		}
		if rateErr := fresh.EnsureRatable(cmd.ActorID()); rateErr != nil {
			return rateErr
		}
		return err
	}

	return uow.Commit(ctx)
}
