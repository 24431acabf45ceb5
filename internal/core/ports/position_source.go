package ports

import (
	"context"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
)

// PositionSource produces the next courier position for a task that is
// being delivered. Implementations may simulate movement or read a device.
type PositionSource interface {
	Next(ctx context.Context, t *task.Task) (kernel.GeoPoint, error)

	// Forget drops any per-task state once streaming for the task stops.
	Forget(taskID kernel.UUID)
}
