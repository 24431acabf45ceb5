package queries

import (
	"context"

	"courierdesk/internal/core/ports"
)

// TaskListQuery is implemented by the list queries. Subscriptions re-run the
// same filter whenever a task changes.
type TaskListQuery interface {
	Validate() error
	Filter() ports.TaskFilter
}

// ListTasksQueryHandler serves both ListCustomerTasksQuery and
// ListCourierTasksQuery.
type ListTasksQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewListTasksQueryHandler(uowFactory ports.UnitOfWorkFactory) ListTasksQueryHandler {
	return ListTasksQueryHandler{uowFactory: uowFactory}
}

func (h ListTasksQueryHandler) Handle(ctx context.Context, query TaskListQuery) ([]TaskView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	tasks, err := h.uowFactory.Create().TaskRepository().Find(ctx, query.Filter())
	if err != nil {
		return nil, err
	}

	return NewTaskViews(tasks), nil
}
