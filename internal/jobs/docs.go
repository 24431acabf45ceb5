// Package jobs provides scheduled background work for the delivery service.
//
// Jobs are built on github.com/robfig/cron/v3.
//
// # Available Jobs
//
// LocationStreamJob writes a courier position for every InProgress task on
// an "@every <interval>" schedule (3s by default). It implements
// commands.Tracker: the start, pause and complete handlers call Begin and
// Halt after their status change is committed. Positions come from a
// ports.PositionSource, normally positioning.SimulatedSource.
//
// # Usage
//
//	stream := jobs.NewLocationStreamJob(recordLocationHandler, source, interval, logger)
//	jobManager := jobs.NewJobManager(stream, uowFactory, logger)
//
//	if err := jobManager.StartAll(ctx); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// A failed tick is logged and not retried; the next tick samples again.
// When the store answers that the task can no longer take samples (paused,
// completed, deleted or reassigned) the stream ends on its own.
package jobs
