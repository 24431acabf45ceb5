package commands

import (
	"context"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
)

// Tracker starts and stops location streaming for a task. It is implemented
// by the location streaming job.
type Tracker interface {
	// Begin starts streaming for an InProgress task. Calling it again with
	// the same or an older version of the task is a no-op.
	Begin(ctx context.Context, t *task.Task)

	// Halt stops a stream opened before version was committed and returns
	// once that stream can no longer produce a sample. A stream begun for a
	// later version is left running.
	Halt(taskID kernel.UUID, version int64)
}
