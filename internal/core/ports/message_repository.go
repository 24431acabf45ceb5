package ports

import (
	"context"
	"time"

	"courierdesk/internal/core/domain/model/chat"
	"courierdesk/internal/core/domain/model/kernel"
)

// MessageRepository stores the append-only chat log of each task.
type MessageRepository interface {
	// Append stores the message. Before writing, the implementation calls
	// m.SettleAfter with the newest stored SentAt of the same task while
	// holding a lock that serializes appends per task.
	Append(ctx context.Context, m *chat.Message) error

	// ListByTask returns the messages of a task with SentAt >= since, in
	// chat.Less order. A zero since returns the whole log.
	ListByTask(ctx context.Context, taskID kernel.UUID, since time.Time) ([]*chat.Message, error)

	// DeleteByTask removes the whole log. It is only used when the task
	// itself is removed.
	DeleteByTask(ctx context.Context, taskID kernel.UUID) error
}
