package commands

import (
	"context"
	"time"

	"courierdesk/internal/core/domain/model/chat"
	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"
)

// SendMessageCommandHandler appends a message written by the task's
// customer or courier. The sender role is derived from the sender's
// relationship to the task, never taken from the client.
type SendMessageCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewSendMessageCommandHandler(uowFactory ports.UnitOfWorkFactory) SendMessageCommandHandler {
	return SendMessageCommandHandler{uowFactory: uowFactory}
}

func (h SendMessageCommandHandler) Handle(ctx context.Context, cmd SendMessageCommand) error {
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

	t, err := uow.TaskRepository().Get(ctx, cmd.TaskID())
	if err != nil {
		return err
	}

	role, ok := t.RoleOf(cmd.ActorID())
	if !ok {
		return errs.NewUnauthorizedError(cmd.ActorID().String(), "is not a participant of task "+t.ID().String())
	}

	senderName := t.Customer().Name()
	if courier := t.Courier(); role == kernel.RoleCourier && courier != nil {
		senderName = courier.Name()
	}

	msg, err := chat.NewMessage(cmd.MessageID(), t.ID(), cmd.ActorID(), senderName, role, cmd.Text(), time.Now())
	if err != nil {
		return err
	}

	if err = uow.MessageRepository().Append(ctx, msg); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
