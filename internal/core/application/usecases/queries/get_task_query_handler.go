package queries

import (
	"context"

	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"
)

// GetTaskQueryHandler returns a task to its customer, its courier, or to any
// user while the task is still Pending.
//
// Reads go through a fresh unit of work without a transaction, so each
// repository call sees the latest committed state.
type GetTaskQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewGetTaskQueryHandler(uowFactory ports.UnitOfWorkFactory) GetTaskQueryHandler {
	return GetTaskQueryHandler{uowFactory: uowFactory}
}

func (h GetTaskQueryHandler) Handle(ctx context.Context, query GetTaskQuery) (TaskView, error) {
	if err := query.Validate(); err != nil {
		return TaskView{}, err
	}

	t, err := h.uowFactory.Create().TaskRepository().Get(ctx, query.TaskID())
	if err != nil {
		return TaskView{}, err
	}

	if !t.IsVisibleTo(query.ViewerID()) {
		return TaskView{}, errs.NewUnauthorizedError(query.ViewerID().String(), "cannot view task "+t.ID().String())
	}

	return NewTaskView(t), nil
}
