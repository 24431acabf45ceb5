package queries

import (
	"errors"
	"time"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/pkg/guard"
)

var ErrListMessagesQueryIsNotConstructed = errors.New(
	"ListMessagesQuery must be created via NewListMessagesQuery constructor",
)

// ListMessagesQuery reads the chat log of a task. A non-zero since limits
// the result to messages sent at or after that instant.
type ListMessagesQuery struct {
	taskID   kernel.UUID
	viewerID kernel.UserID
	since    time.Time

	guard guard.ConstructorGuard
}

func NewListMessagesQuery(taskID kernel.UUID, viewerID kernel.UserID, since time.Time) (ListMessagesQuery, error) {
	if err := errors.Join(taskID.Validate(), viewerID.Validate()); err != nil {
		return ListMessagesQuery{}, err
	}
	return ListMessagesQuery{
		taskID:   taskID,
		viewerID: viewerID,
		since:    since,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (q ListMessagesQuery) Validate() error {
	return q.guard.Validate(ErrListMessagesQueryIsNotConstructed)
}

func (q ListMessagesQuery) TaskID() kernel.UUID {
	return q.taskID
}

func (q ListMessagesQuery) ViewerID() kernel.UserID {
	return q.viewerID
}

func (q ListMessagesQuery) Since() time.Time {
	return q.since
}

// WithSince returns a copy reading from a later point of the log.
func (q ListMessagesQuery) WithSince(since time.Time) ListMessagesQuery {
	q.since = since
	return q
}
