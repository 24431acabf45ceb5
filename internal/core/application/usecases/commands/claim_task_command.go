package commands

import (
	"errors"
	"strings"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/pkg/guard"
)

var ErrClaimTaskCommandIsNotConstructed = errors.New(
	"ClaimTaskCommand must be created via NewClaimTaskCommand constructor",
)

// ClaimTaskCommand asks to assign a Pending task to the acting courier.
type ClaimTaskCommand struct {
	taskAction
	courierEmail string

	guard guard.ConstructorGuard
}

func NewClaimTaskCommand(taskID kernel.UUID, courierID kernel.UserID, courierEmail string) (ClaimTaskCommand, error) {
	action, err := newTaskAction(taskID, courierID)
	if err != nil {
		return ClaimTaskCommand{}, err
	}
	return ClaimTaskCommand{
		taskAction:   action,
		courierEmail: strings.TrimSpace(courierEmail),
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (c ClaimTaskCommand) Validate() error {
	return c.guard.Validate(ErrClaimTaskCommandIsNotConstructed)
}

func (c ClaimTaskCommand) CourierEmail() string {
	return c.courierEmail
}
