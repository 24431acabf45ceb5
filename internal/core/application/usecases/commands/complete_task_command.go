package commands

import (
	"errors"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/pkg/guard"
)

var ErrCompleteTaskCommandIsNotConstructed = errors.New(
	"CompleteTaskCommand must be created via NewCompleteTaskCommand constructor",
)

// CompleteTaskCommand marks a claimed task Delivered.
type CompleteTaskCommand struct {
	taskAction

	guard guard.ConstructorGuard
}

func NewCompleteTaskCommand(taskID kernel.UUID, courierID kernel.UserID) (CompleteTaskCommand, error) {
	action, err := newTaskAction(taskID, courierID)
	if err != nil {
		return CompleteTaskCommand{}, err
	}
	return CompleteTaskCommand{taskAction: action, guard: guard.NewConstructorGuard()}, nil
}

func (c CompleteTaskCommand) Validate() error {
	return c.guard.Validate(ErrCompleteTaskCommandIsNotConstructed)
}
