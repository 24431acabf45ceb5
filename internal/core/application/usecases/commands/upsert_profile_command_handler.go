package commands

import (
	"context"

	"courierdesk/internal/core/ports"
)

type UpsertProfileCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewUpsertProfileCommandHandler(uowFactory ports.UnitOfWorkFactory) UpsertProfileCommandHandler {
	return UpsertProfileCommandHandler{uowFactory: uowFactory}
}

func (h UpsertProfileCommandHandler) Handle(ctx context.Context, cmd UpsertProfileCommand) error {
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

	if err := uow.ProfileRepository().Save(ctx, cmd.Profile()); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
