package commands

import (
	"errors"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/pkg/guard"
)

var ErrSubmitRatingCommandIsNotConstructed = errors.New(
	"SubmitRatingCommand must be created via NewSubmitRatingCommand constructor",
)

// SubmitRatingCommand records the customer's score for a delivered task.
type SubmitRatingCommand struct {
	taskAction
	score int

	guard guard.ConstructorGuard
}

// NewSubmitRatingCommand keeps the score as given. The handler checks it
// against [task.MinScore, task.MaxScore] once the caller is known to be
// allowed to rate the task.
func NewSubmitRatingCommand(taskID kernel.UUID, customerID kernel.UserID, score int) (SubmitRatingCommand, error) {
	cmd := SubmitRatingCommand{guard: guard.NewConstructorGuard()}

	action, err := newTaskAction(taskID, customerID)
	if err != nil {
		return SubmitRatingCommand{}, err
	}
	cmd.taskAction = action
	cmd.score = score

	return cmd, nil
}

func (c SubmitRatingCommand) Validate() error {
	return c.guard.Validate(ErrSubmitRatingCommandIsNotConstructed)
}

func (c SubmitRatingCommand) Score() int {
	return c.score
}
