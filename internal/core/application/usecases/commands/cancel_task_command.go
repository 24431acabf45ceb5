package commands

import (
	"errors"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/pkg/guard"
)

var ErrCancelTaskCommandIsNotConstructed = errors.New(
	"CancelTaskCommand must be created via NewCancelTaskCommand constructor",
)

// CancelTaskCommand removes a Pending task on behalf of its customer.
type CancelTaskCommand struct {
	taskAction

	guard guard.ConstructorGuard
}

func NewCancelTaskCommand(taskID kernel.UUID, customerID kernel.UserID) (CancelTaskCommand, error) {
	action, err := newTaskAction(taskID, customerID)
	if err != nil {
		return CancelTaskCommand{}, err
	}
	return CancelTaskCommand{taskAction: action, guard: guard.NewConstructorGuard()}, nil
}

func (c CancelTaskCommand) Validate() error {
	return c.guard.Validate(ErrCancelTaskCommandIsNotConstructed)
}
