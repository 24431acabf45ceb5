package commands

import (
	"errors"

	"courierdesk/internal/core/domain/model/kernel"
)

// taskAction is the payload shared by commands that only name a task and
// the user acting on it.
type taskAction struct {
	taskID  kernel.UUID
	actorID kernel.UserID
}

func newTaskAction(taskID kernel.UUID, actorID kernel.UserID) (taskAction, error) {
	if err := errors.Join(taskID.Validate(), actorID.Validate()); err != nil {
		return taskAction{}, err
	}
	return taskAction{taskID: taskID, actorID: actorID}, nil
}

func (a taskAction) TaskID() kernel.UUID {
	return a.taskID
}

func (a taskAction) ActorID() kernel.UserID {
	return a.actorID
}
