package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"courierdesk/internal/core/application/usecases/commands"
	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"

	"github.com/robfig/cron/v3"
)

const (
	DefaultTrackingInterval = 3 * time.Second
	defaultTickTimeout      = 10 * time.Second
)

var _ commands.Tracker = (*LocationStreamJob)(nil)

// LocationStreamJob produces courier positions for every InProgress task.
// Each task gets its own cron entry; a tick that is still writing when the
// next one fires makes the newer tick a no-op.
type LocationStreamJob struct {
	handler  commands.RecordLocationCommandHandler
	source   ports.PositionSource
	interval time.Duration
	timeout  time.Duration
	cron     *cron.Cron
	logger   *slog.Logger

	mu       sync.Mutex
	running  bool
	sessions map[kernel.UUID]*streamSession
	inflight sync.WaitGroup
}

type streamSession struct {
	task      *task.Task
	courierID kernel.UserID
	entryID   cron.EntryID

	// version is the task version committed by the start that opened the
	// session. A halt for an older version leaves the session alone.
	version int64

	// mu is held for the duration of a tick. Halt takes it to wait for an
	// in-flight write.
	mu     sync.Mutex
	halted bool
}

// NewLocationStreamJob creates a job sampling every interval. A non-positive
// interval falls back to DefaultTrackingInterval.
func NewLocationStreamJob(
	handler commands.RecordLocationCommandHandler,
	source ports.PositionSource,
	interval time.Duration,
	logger *slog.Logger,
) *LocationStreamJob {
	if interval <= 0 {
		interval = DefaultTrackingInterval
	}
	return &LocationStreamJob{
		handler:  handler,
		source:   source,
		interval: interval,
		timeout:  defaultTickTimeout,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "location_stream_job"),
		sessions: make(map[kernel.UUID]*streamSession),
	}
}

// Start begins running the scheduled ticks.
func (j *LocationStreamJob) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return
	}
	j.running = true
	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Location stream job started", "interval", j.interval.String())
}

// Stop halts the scheduler and waits for running ticks to finish. Sessions
// are dropped; the next StartAll resumes them from storage.
func (j *LocationStreamJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	sessions := j.sessions
	j.sessions = make(map[kernel.UUID]*streamSession)
	j.mu.Unlock()

	<-j.cron.Stop().Done()
	for id, s := range sessions {
		j.cron.Remove(s.entryID)
		s.mu.Lock()
		s.halted = true
		s.mu.Unlock()
		j.source.Forget(id)
	}
	j.inflight.Wait()
	j.logger.InfoContext(context.Background(), "Location stream job stopped")
}

// Begin starts streaming for t and writes the first sample right away. A
// session opened for an older version of t is replaced.
func (j *LocationStreamJob) Begin(ctx context.Context, t *task.Task) {
	courier := t.Courier()
	if courier == nil || t.Status() != task.InProgress {
		j.logger.WarnContext(ctx, "Refusing to stream a task that is not in progress",
			"task_id", t.ID().String(), "status", t.Status().String())
		return
	}

	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	replaced, ok := j.sessions[t.ID()]
	if ok && replaced.version >= t.Version() {
		j.mu.Unlock()
		return
	}

	s := &streamSession{task: t, courierID: courier.ID(), version: t.Version()}
	entryID, err := j.cron.AddFunc("@every "+j.interval.String(), func() { j.tick(s) })
	if err != nil {
		j.mu.Unlock()
		j.logger.ErrorContext(ctx, "Failed to schedule location stream", "task_id", t.ID().String(), "error", err)
		return
	}
	s.entryID = entryID
	j.sessions[t.ID()] = s
	if replaced != nil {
		j.cron.Remove(replaced.entryID)
	}
	j.inflight.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.inflight.Done()
		if replaced != nil {
			replaced.mu.Lock()
			replaced.halted = true
			replaced.mu.Unlock()
		}
		j.tick(s)
	}()

	j.logger.InfoContext(ctx, "Location stream started",
		"task_id", t.ID().String(), "courier_id", s.courierID.String(), "version", s.version)
}

// Halt removes the stream of taskID opened before version was committed.
// When it returns no further sample for that session will be written by this
// job. A session opened by a later start keeps running.
func (j *LocationStreamJob) Halt(taskID kernel.UUID, version int64) {
	j.mu.Lock()
	s, ok := j.sessions[taskID]
	if ok && s.version >= version {
		j.mu.Unlock()
		j.logger.DebugContext(context.Background(), "Keeping newer location stream",
			"task_id", taskID.String(), "session_version", s.version, "halt_version", version)
		return
	}
	if ok {
		delete(j.sessions, taskID)
	}
	j.mu.Unlock()
	if !ok {
		return
	}

	j.cron.Remove(s.entryID)
	s.mu.Lock()
	s.halted = true
	s.mu.Unlock()
	j.source.Forget(taskID)

	j.logger.InfoContext(context.Background(), "Location stream halted", "task_id", taskID.String())
}

// Streaming reports whether taskID currently has a session.
func (j *LocationStreamJob) Streaming(taskID kernel.UUID) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, ok := j.sessions[taskID]
	return ok
}

func (j *LocationStreamJob) tick(s *streamSession) {
	if !s.mu.TryLock() {
		return
	}
	defer s.mu.Unlock()
	if s.halted {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	taskID := s.task.ID()
	point, err := j.source.Next(ctx, s.task)
	if err != nil {
		j.logger.ErrorContext(ctx, "Position source failed", "task_id", taskID.String(), "error", err)
		return
	}

	cmd, err := commands.NewRecordLocationCommand(taskID, s.courierID, point, time.Now())
	if err != nil {
		j.logger.ErrorContext(ctx, "Invalid location sample", "task_id", taskID.String(), "error", err)
		return
	}

	if err = j.handler.Handle(ctx, cmd); err != nil {
		if isTerminal(err) {
			j.logger.InfoContext(ctx, "Task no longer accepts locations, stopping stream",
				"task_id", taskID.String(), "reason", err)
			j.drop(s)
			return
		}
		j.logger.ErrorContext(ctx, "Failed to record location", "task_id", taskID.String(), "error", err)
	}
}

// drop ends a session from inside its own tick, which already holds s.mu.
func (j *LocationStreamJob) drop(s *streamSession) {
	s.halted = true
	taskID := s.task.ID()

	j.mu.Lock()
	if current, ok := j.sessions[taskID]; ok && current == s {
		delete(j.sessions, taskID)
	}
	j.mu.Unlock()

	j.cron.Remove(s.entryID)
	j.source.Forget(taskID)
}

// isTerminal reports errors after which retrying on the next tick cannot
// succeed: the task was paused, completed, reassigned or deleted.
func isTerminal(err error) bool {
	return errors.Is(err, errs.ErrInvalidTransition) ||
		errors.Is(err, errs.ErrUnauthorized) ||
		errors.Is(err, errs.ErrObjectNotFound)
}
