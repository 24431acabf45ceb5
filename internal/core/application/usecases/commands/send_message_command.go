package commands

import (
	"errors"
	"strings"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/pkg/errs"
	"courierdesk/internal/pkg/guard"
)

var ErrSendMessageCommandIsNotConstructed = errors.New(
	"SendMessageCommand must be created via NewSendMessageCommand constructor",
)

// SendMessageCommand appends a chat message to a task's log. The text is
// trimmed here so that whitespace-only input fails before any read.
type SendMessageCommand struct { //nolint:recvcheck //using for validation
	taskAction
	messageID kernel.UUID
	text      string

	guard guard.ConstructorGuard
}

func NewSendMessageCommand(
	messageID kernel.UUID,
	taskID kernel.UUID,
	senderID kernel.UserID,
	text string,
) (SendMessageCommand, error) {
	cmd := SendMessageCommand{guard: guard.NewConstructorGuard()}

	action, actionErr := newTaskAction(taskID, senderID)
	if err := errors.Join(actionErr, messageID.Validate(), cmd.setText(text)); err != nil {
		return SendMessageCommand{}, err
	}
	cmd.taskAction = action
	cmd.messageID = messageID

	return cmd, nil
}

func (c SendMessageCommand) Validate() error {
	return c.guard.Validate(ErrSendMessageCommandIsNotConstructed)
}

func (c SendMessageCommand) MessageID() kernel.UUID {
	return c.messageID
}

func (c SendMessageCommand) Text() string {
	return c.text
}

func (c *SendMessageCommand) setText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errs.NewValueIsRequiredError("text")
	}
	c.text = text
	return nil
}
