package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"courierdesk/internal/core/application/subscriptions"
	"courierdesk/internal/core/application/usecases/commands"
	"courierdesk/internal/core/application/usecases/queries"
	"courierdesk/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// DefaultHeartbeat is how often an idle event stream sends a comment line so
// that proxies keep the connection open.
const DefaultHeartbeat = 15 * time.Second

// Handlers groups the use cases the HTTP surface exposes.
type Handlers struct {
	CreateTask     commands.CreateTaskCommandHandler
	CancelTask     commands.CancelTaskCommandHandler
	DiscardTask    commands.DiscardTaskCommandHandler
	ClaimTask      commands.ClaimTaskCommandHandler
	StartTracking  commands.StartTrackingCommandHandler
	PauseTracking  commands.PauseTrackingCommandHandler
	CompleteTask   commands.CompleteTaskCommandHandler
	RecordLocation commands.RecordLocationCommandHandler
	SendMessage    commands.SendMessageCommandHandler
	SubmitRating   commands.SubmitRatingCommandHandler
	UpsertProfile  commands.UpsertProfileCommandHandler

	GetTask      queries.GetTaskQueryHandler
	ListTasks    queries.ListTasksQueryHandler
	ListMessages queries.ListMessagesQueryHandler
	GetProfile   queries.GetProfileQueryHandler
}

// Server adapts HTTP requests to commands and queries. Every handler works
// on behalf of the Principal set by Authenticate.
type Server struct {
	h             Handlers
	subscriptions *subscriptions.Service
	heartbeat     time.Duration
	streams       context.Context
	logger        *slog.Logger
}

func NewServer(h Handlers, subs *subscriptions.Service, logger *slog.Logger) *Server {
	return &Server{
		h:             h,
		subscriptions: subs,
		heartbeat:     DefaultHeartbeat,
		streams:       context.Background(),
		logger:        logger.With("component", "http.Server"),
	}
}

// WithHeartbeat overrides DefaultHeartbeat.
func (s *Server) WithHeartbeat(d time.Duration) *Server {
	s.heartbeat = d
	return s
}

// WithStreamContext ends every open event stream once ctx is done. Other
// requests are not affected and drain through the regular shutdown.
func (s *Server) WithStreamContext(ctx context.Context) *Server {
	s.streams = ctx
	return s
}

// RegisterHandlers mounts every /api/v1 route on router.
func (s *Server) RegisterHandlers(router *echo.Group) {
	router.POST("/tasks", s.CreateTask)
	router.GET("/tasks/:id", s.GetTask)
	router.DELETE("/tasks/:id", s.CancelTask)
	router.POST("/tasks/:id/discard", s.DiscardTask)
	router.POST("/tasks/:id/claim", s.ClaimTask)
	router.POST("/tasks/:id/start", s.StartTracking)
	router.POST("/tasks/:id/pause", s.PauseTracking)
	router.POST("/tasks/:id/complete", s.CompleteTask)
	router.POST("/tasks/:id/location", s.RecordLocation)
	router.POST("/tasks/:id/rating", s.SubmitRating)
	router.GET("/tasks/:id/messages", s.ListMessages)
	router.POST("/tasks/:id/messages", s.SendMessage)
	router.GET("/tasks/:id/watch", s.WatchTask)
	router.GET("/tasks/:id/messages/watch", s.WatchMessages)
	router.GET("/customer/tasks", s.ListCustomerTasks)
	router.GET("/customer/tasks/watch", s.WatchCustomerTasks)
	router.GET("/courier/tasks", s.ListCourierTasks)
	router.GET("/courier/tasks/watch", s.WatchCourierTasks)
	router.GET("/profile", s.GetProfile)
	router.PUT("/profile", s.SaveProfile)
}

// taskID binds the :id path parameter.
func taskID(c echo.Context) (kernel.UUID, error) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return kernel.UUID{}, echo.NewHTTPError(http.StatusBadRequest, "invalid format for parameter id: "+err.Error())
	}
	parsed, err := kernel.UUIDFromString(id.String())
	if err != nil {
		return kernel.UUID{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return parsed, nil
}

// courierView binds the optional view query parameter.
func courierView(c echo.Context) (queries.CourierView, error) {
	var view *string
	if err := runtime.BindQueryParameter("form", true, false, "view", c.QueryParams(), &view); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid format for parameter view: "+err.Error())
	}
	if view == nil {
		return queries.ViewActive, nil
	}
	return queries.CourierView(*view), nil
}

// since binds the optional since query parameter.
func since(c echo.Context) (time.Time, error) {
	var at *time.Time
	if err := runtime.BindQueryParameter("form", true, false, "since", c.QueryParams(), &at); err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "invalid format for parameter since: "+err.Error())
	}
	if at == nil {
		return time.Time{}, nil
	}
	return *at, nil
}

// respondWithTask writes the current view of id, used after a command
// succeeds.
func (s *Server) respondWithTask(c echo.Context, code int, id kernel.UUID) error {
	query, err := queries.NewGetTaskQuery(id, principalFrom(c).UID)
	if err != nil {
		return s.problem(c, err)
	}
	view, err := s.h.GetTask.Handle(c.Request().Context(), query)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(code, view)
}
