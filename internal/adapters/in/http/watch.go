package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"courierdesk/internal/core/application/subscriptions"
	"courierdesk/internal/core/application/usecases/queries"

	"github.com/labstack/echo/v4"
)

// Event names written on the streams.
const (
	EventTask     = "task"
	EventTasks    = "tasks"
	EventMessages = "messages"
	EventDeleted  = "deleted"
	EventError    = "error"
)

// WatchTask handles GET /api/v1/tasks/{id}/watch.
func (s *Server) WatchTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	query, err := queries.NewGetTaskQuery(id, principalFrom(c).UID)
	if err != nil {
		return s.problem(c, err)
	}

	ctx, cancel := s.streamContext(c)
	defer cancel()

	events, err := s.subscriptions.WatchTask(ctx, query)
	if err != nil {
		return s.problem(c, err)
	}

	return streamEvents(ctx, c, s.heartbeat, events, func(w *eventWriter, ev subscriptions.TaskEvent) (bool, error) {
		switch {
		case ev.Err != nil:
			code := StatusFor(ev.Err)
			return false, w.send(EventError, Error{Code: code, Message: ev.Err.Error()})
		case ev.Deleted:
			return false, w.send(EventDeleted, messageRef{ID: id.String()})
		default:
			return true, w.send(EventTask, ev.Task)
		}
	})
}

// WatchMessages handles GET /api/v1/tasks/{id}/messages/watch. The first
// event carries the whole log, later ones only new messages.
func (s *Server) WatchMessages(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	query, err := queries.NewListMessagesQuery(id, principalFrom(c).UID, time.Time{})
	if err != nil {
		return s.problem(c, err)
	}

	ctx, cancel := s.streamContext(c)
	defer cancel()

	batches, err := s.subscriptions.WatchMessages(ctx, query)
	if err != nil {
		return s.problem(c, err)
	}

	return streamEvents(ctx, c, s.heartbeat, batches, func(w *eventWriter, batch []queries.MessageView) (bool, error) {
		return true, w.send(EventMessages, batch)
	})
}

// WatchCustomerTasks handles GET /api/v1/customer/tasks/watch.
func (s *Server) WatchCustomerTasks(c echo.Context) error {
	query, err := queries.NewListCustomerTasksQuery(principalFrom(c).UID)
	if err != nil {
		return s.problem(c, err)
	}
	return s.watchTasks(c, query)
}

// WatchCourierTasks handles GET /api/v1/courier/tasks/watch.
func (s *Server) WatchCourierTasks(c echo.Context) error {
	view, err := courierView(c)
	if err != nil {
		return err
	}
	query, err := queries.NewListCourierTasksQuery(principalFrom(c).UID, view)
	if err != nil {
		return s.problem(c, err)
	}
	return s.watchTasks(c, query)
}

func (s *Server) watchTasks(c echo.Context, query queries.TaskListQuery) error {
	ctx, cancel := s.streamContext(c)
	defer cancel()

	lists, err := s.subscriptions.WatchTasks(ctx, query)
	if err != nil {
		return s.problem(c, err)
	}

	return streamEvents(ctx, c, s.heartbeat, lists, func(w *eventWriter, list []queries.TaskView) (bool, error) {
		return true, w.send(EventTasks, list)
	})
}

// streamContext ends when the client goes away or the server stops
// streaming, whichever comes first.
func (s *Server) streamContext(c echo.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(c.Request().Context())
	stop := context.AfterFunc(s.streams, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// eventWriter writes server-sent events and flushes after each one.
type eventWriter struct {
	res *echo.Response
}

func openEventStream(c echo.Context) *eventWriter {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()
	return &eventWriter{res: res}
}

func (w *eventWriter) send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err = fmt.Fprintf(w.res, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	w.res.Flush()
	return nil
}

func (w *eventWriter) heartbeat() error {
	if _, err := fmt.Fprint(w.res, ": ping\n\n"); err != nil {
		return err
	}
	w.res.Flush()
	return nil
}

// streamEvents forwards events until the subscription ends, the client goes
// away or emit reports the stream is over. Errors after the headers were
// sent can only end the stream, so they are not returned.
func streamEvents[T any](
	ctx context.Context,
	c echo.Context,
	every time.Duration,
	events <-chan T,
	emit func(*eventWriter, T) (bool, error),
) error {
	w := openEventStream(c)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.heartbeat(); err != nil {
				return nil //nolint:nilerr // client is gone
			}
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			more, err := emit(w, ev)
			if err != nil || !more {
				return nil //nolint:nilerr // client is gone
			}
		}
	}
}
