package commands

import (
	"errors"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/pkg/guard"
)

var ErrPauseTrackingCommandIsNotConstructed = errors.New(
	"PauseTrackingCommand must be created via NewPauseTrackingCommand constructor",
)

// PauseTrackingCommand suspends an InProgress task and stops location streaming.
type PauseTrackingCommand struct {
	taskAction

	guard guard.ConstructorGuard
}

func NewPauseTrackingCommand(taskID kernel.UUID, courierID kernel.UserID) (PauseTrackingCommand, error) {
	action, err := newTaskAction(taskID, courierID)
	if err != nil {
		return PauseTrackingCommand{}, err
	}
	return PauseTrackingCommand{taskAction: action, guard: guard.NewConstructorGuard()}, nil
}

func (c PauseTrackingCommand) Validate() error {
	return c.guard.Validate(ErrPauseTrackingCommandIsNotConstructed)
}
