package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/core/ports"
)

// JobManager coordinates all background jobs in the application.
type JobManager struct {
	locationStream *LocationStreamJob
	uowFactory     ports.UnitOfWorkFactory
	logger         *slog.Logger
}

// NewJobManager accepts a nil locationStream when positions are pushed by
// clients; StartAll and StopAll are then no-ops.
func NewJobManager(
	locationStream *LocationStreamJob,
	uowFactory ports.UnitOfWorkFactory,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		locationStream: locationStream,
		uowFactory:     uowFactory,
		logger:         logger.With("component", "job_manager"),
	}
}

// StartAll starts all jobs and resumes streams for tasks that were left
// InProgress by a previous run.
func (jm *JobManager) StartAll(ctx context.Context) error {
	if jm.locationStream == nil {
		return nil
	}

	jm.locationStream.Start()

	if err := jm.resumeLocationStreams(ctx); err != nil {
		jm.locationStream.Stop()
		return fmt.Errorf("failed to resume location streams: %w", err)
	}

	return nil
}

// StopAll stops all jobs gracefully.
func (jm *JobManager) StopAll() {
	if jm.locationStream == nil {
		return
	}
	jm.locationStream.Stop()
}

func (jm *JobManager) resumeLocationStreams(ctx context.Context) error {
	uow := jm.uowFactory.Create()
	tasks, err := uow.TaskRepository().Find(ctx, ports.TaskFilter{
		Statuses: []task.Status{task.InProgress},
	})
	if err != nil {
		return err
	}

	for _, t := range tasks {
		jm.locationStream.Begin(ctx, t)
	}

	if len(tasks) > 0 {
		jm.logger.InfoContext(ctx, "Resumed location streams", "count", len(tasks))
	}
	return nil
}
