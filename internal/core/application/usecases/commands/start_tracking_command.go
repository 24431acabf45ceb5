package commands

import (
	"errors"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/pkg/guard"
)

var ErrStartTrackingCommandIsNotConstructed = errors.New(
	"StartTrackingCommand must be created via NewStartTrackingCommand constructor",
)

// StartTrackingCommand moves an Assigned or Paused task to InProgress and starts location streaming.
type StartTrackingCommand struct {
	taskAction

	guard guard.ConstructorGuard
}

func NewStartTrackingCommand(taskID kernel.UUID, courierID kernel.UserID) (StartTrackingCommand, error) {
	action, err := newTaskAction(taskID, courierID)
	if err != nil {
		return StartTrackingCommand{}, err
	}
	return StartTrackingCommand{taskAction: action, guard: guard.NewConstructorGuard()}, nil
}

func (c StartTrackingCommand) Validate() error {
	return c.guard.Validate(ErrStartTrackingCommandIsNotConstructed)
}
