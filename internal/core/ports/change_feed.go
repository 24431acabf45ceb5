package ports

import (
	"context"

	"courierdesk/internal/core/domain/model/kernel"
)

// ChangeKind tells subscribers which document family changed.
type ChangeKind int

const (
	TaskChanged ChangeKind = iota + 1
	MessageAppended
)

func (k ChangeKind) String() string {
	switch k {
	case TaskChanged:
		return "task"
	case MessageAppended:
		return "message"
	default:
		return "unknown"
	}
}

// Change is a notification that something about a task was committed.
// It carries no payload: subscribers re-read the snapshot they care about.
type Change struct {
	Kind    ChangeKind
	TaskID  kernel.UUID
	Deleted bool
}

// ChangeFeed is the broadcast primitive behind push subscriptions. One
// writer publishes, any number of readers subscribe.
type ChangeFeed interface {
	// Publish delivers changes to every current subscriber. It never blocks
	// on slow subscribers.
	Publish(ctx context.Context, changes ...Change) error

	// Subscribe returns a channel that receives every change published after
	// the call. The channel is closed when ctx is done or the feed is closed.
	Subscribe(ctx context.Context) (<-chan Change, error)
}
