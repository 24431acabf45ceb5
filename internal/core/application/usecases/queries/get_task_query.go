package queries

import (
	"errors"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/pkg/guard"
)

var ErrGetTaskQueryIsNotConstructed = errors.New(
	"GetTaskQuery must be created via NewGetTaskQuery constructor",
)

// GetTaskQuery reads one task on behalf of viewerID.
type GetTaskQuery struct {
	taskID   kernel.UUID
	viewerID kernel.UserID

	guard guard.ConstructorGuard
}

func NewGetTaskQuery(taskID kernel.UUID, viewerID kernel.UserID) (GetTaskQuery, error) {
	if err := errors.Join(taskID.Validate(), viewerID.Validate()); err != nil {
		return GetTaskQuery{}, err
	}
	return GetTaskQuery{taskID: taskID, viewerID: viewerID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetTaskQuery) Validate() error {
	return q.guard.Validate(ErrGetTaskQueryIsNotConstructed)
}

func (q GetTaskQuery) TaskID() kernel.UUID {
	return q.taskID
}

func (q GetTaskQuery) ViewerID() kernel.UserID {
	return q.viewerID
}
