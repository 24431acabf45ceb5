// Package subscriptions turns committed changes into pushed snapshots.
//
// Every watch first subscribes to the change feed and only then reads its
// initial snapshot, so a write landing between the two is never missed.
// Afterwards each relevant change triggers a fresh read through the same
// query handlers the request/response API uses, which keeps authorization
// and ordering rules in one place.
package subscriptions

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"courierdesk/internal/core/application/usecases/queries"
	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"
)

// TaskEvent is one update of a watched task. Exactly one of Task, Deleted
// or Err is set. Deleted and Err are final: the channel closes after them.
type TaskEvent struct {
	Task    *queries.TaskView
	Deleted bool
	Err     error
}

type Service struct {
	feed         ports.ChangeFeed
	getTask      queries.GetTaskQueryHandler
	listTasks    queries.ListTasksQueryHandler
	listMessages queries.ListMessagesQueryHandler
	logger       *slog.Logger
}

func NewService(feed ports.ChangeFeed, uowFactory ports.UnitOfWorkFactory, logger *slog.Logger) *Service {
	return &Service{
		feed:         feed,
		getTask:      queries.NewGetTaskQueryHandler(uowFactory),
		listTasks:    queries.NewListTasksQueryHandler(uowFactory),
		listMessages: queries.NewListMessagesQueryHandler(uowFactory),
		logger:       logger.With("component", "subscriptions.Service"),
	}
}

// WatchTask streams the task named by query. The first event carries the
// current snapshot. Errors of the initial read are returned directly.
func (s *Service) WatchTask(ctx context.Context, query queries.GetTaskQuery) (<-chan TaskEvent, error) {
	ctx, cancel := context.WithCancel(ctx)
	changes, err := s.feed.Subscribe(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	view, err := s.getTask.Handle(ctx, query)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan TaskEvent)
	go func() {
		defer cancel()
		defer close(out)

		if !send(ctx, out, TaskEvent{Task: &view}) {
			return
		}

		for change := range changes {
			if change.Kind != ports.TaskChanged || change.TaskID != query.TaskID() {
				continue
			}
			if change.Deleted {
				send(ctx, out, TaskEvent{Deleted: true})
				return
			}

			view, err := s.getTask.Handle(ctx, query)
			switch {
			case errors.Is(err, errs.ErrObjectNotFound):
				send(ctx, out, TaskEvent{Deleted: true})
				return
			case errors.Is(err, errs.ErrUnauthorized):
				send(ctx, out, TaskEvent{Err: err})
				return
			case err != nil:
				s.logFailure(ctx, "task", query.TaskID(), err)
				continue
			}
			if !send(ctx, out, TaskEvent{Task: &view}) {
				return
			}
		}
	}()

	return out, nil
}

// WatchTasks streams the full result of a list query every time any task
// changes. The first value is the current list.
func (s *Service) WatchTasks(ctx context.Context, query queries.TaskListQuery) (<-chan []queries.TaskView, error) {
	ctx, cancel := context.WithCancel(ctx)
	changes, err := s.feed.Subscribe(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	views, err := s.listTasks.Handle(ctx, query)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan []queries.TaskView)
	go func() {
		defer cancel()
		defer close(out)

		if !send(ctx, out, views) {
			return
		}

		for change := range changes {
			if change.Kind != ports.TaskChanged {
				continue
			}
			views, err := s.listTasks.Handle(ctx, query)
			if err != nil {
				s.logFailure(ctx, "task list", change.TaskID, err)
				continue
			}
			if !send(ctx, out, views) {
				return
			}
		}
	}()

	return out, nil
}

// WatchMessages streams the chat log: the whole history first, then only
// messages not delivered before. The channel closes when the task is
// removed or the viewer loses access.
func (s *Service) WatchMessages(ctx context.Context, query queries.ListMessagesQuery) (<-chan []queries.MessageView, error) {
	ctx, cancel := context.WithCancel(ctx)
	changes, err := s.feed.Subscribe(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	history, err := s.listMessages.Handle(ctx, query)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan []queries.MessageView)
	go func() {
		defer cancel()
		defer close(out)

		var cursor messageCursor
		cursor.advance(history)
		if !send(ctx, out, history) {
			return
		}

		for change := range changes {
			if change.TaskID != query.TaskID() {
				continue
			}
			if change.Kind == ports.TaskChanged {
				if change.Deleted {
					return
				}
				continue
			}

			fresh, err := s.listMessages.Handle(ctx, query.WithSince(cursor.since))
			switch {
			case errors.Is(err, errs.ErrObjectNotFound), errors.Is(err, errs.ErrUnauthorized):
				return
			case err != nil:
				s.logFailure(ctx, "messages", query.TaskID(), err)
				continue
			}

			unseen := cursor.advance(fresh)
			if len(unseen) == 0 {
				continue
			}
			if !send(ctx, out, unseen) {
				return
			}
		}
	}()

	return out, nil
}

func (s *Service) logFailure(ctx context.Context, what string, taskID kernel.UUID, err error) {
	s.logger.WarnContext(ctx, "refresh failed, waiting for next change",
		"watch", what, "taskID", taskID.String(), "error", err)
}

// messageCursor remembers the newest delivered timestamp and the ids
// delivered at exactly that instant. Reads resume at since, so messages
// sharing the boundary timestamp come back and are filtered by id.
type messageCursor struct {
	since time.Time
	seen  map[string]struct{}
}

func (c *messageCursor) advance(batch []queries.MessageView) []queries.MessageView {
	unseen := make([]queries.MessageView, 0, len(batch))
	for _, m := range batch {
		if _, ok := c.seen[m.ID]; ok && m.SentAt.Equal(c.since) {
			continue
		}
		unseen = append(unseen, m)

		if m.SentAt.After(c.since) || c.seen == nil {
			c.since = m.SentAt
			c.seen = make(map[string]struct{})
		}
		c.seen[m.ID] = struct{}{}
	}
	return unseen
}

func send[T any](ctx context.Context, out chan<- T, v T) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
