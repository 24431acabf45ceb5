package queries

import (
	"context"

	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"
)

// ListMessagesQueryHandler returns the chat log to the task's participants
// only.
type ListMessagesQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewListMessagesQueryHandler(uowFactory ports.UnitOfWorkFactory) ListMessagesQueryHandler {
	return ListMessagesQueryHandler{uowFactory: uowFactory}
}

func (h ListMessagesQueryHandler) Handle(ctx context.Context, query ListMessagesQuery) ([]MessageView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	t, err := uow.TaskRepository().Get(ctx, query.TaskID())
	if err != nil {
		return nil, err
	}
	if _, ok := t.RoleOf(query.ViewerID()); !ok {
		return nil, errs.NewUnauthorizedError(query.ViewerID().String(), "is not a participant of task "+t.ID().String())
	}

	messages, err := uow.MessageRepository().ListByTask(ctx, t.ID(), query.Since())
	if err != nil {
		return nil, err
	}

	return NewMessageViews(messages), nil
}
