package commands

import (
	"errors"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/pkg/guard"
)

var ErrDiscardTaskCommandIsNotConstructed = errors.New(
	"DiscardTaskCommand must be created via NewDiscardTaskCommand constructor",
)

// DiscardTaskCommand removes a Delivered task, and its chat log, from the customer's history.
type DiscardTaskCommand struct {
	taskAction

	guard guard.ConstructorGuard
}

func NewDiscardTaskCommand(taskID kernel.UUID, customerID kernel.UserID) (DiscardTaskCommand, error) {
	action, err := newTaskAction(taskID, customerID)
	if err != nil {
		return DiscardTaskCommand{}, err
	}
	return DiscardTaskCommand{taskAction: action, guard: guard.NewConstructorGuard()}, nil
}

func (c DiscardTaskCommand) Validate() error {
	return c.guard.Validate(ErrDiscardTaskCommandIsNotConstructed)
}
