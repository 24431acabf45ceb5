package http

import (
	"net/http"
	"time"

	"courierdesk/internal/core/application/usecases/commands"
	"courierdesk/internal/core/application/usecases/queries"
	"courierdesk/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
)

// CreateTask handles POST /api/v1/tasks.
func (s *Server) CreateTask(c echo.Context) error {
	var req newTaskRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	destination, err := kernel.NewGeoPoint(*req.Destination.Lat, *req.Destination.Lng)
	if err != nil {
		return s.problem(c, err)
	}

	principal := principalFrom(c)
	cmd, err := commands.NewCreateTaskCommand(kernel.NewUUID(), principal.UID, principal.Email,
		destination, req.Address, req.Notes)
	if err != nil {
		return s.problem(c, err)
	}
	if err = s.h.CreateTask.Handle(c.Request().Context(), cmd); err != nil {
		return s.problem(c, err)
	}

	return s.respondWithTask(c, http.StatusCreated, cmd.TaskID())
}

// GetTask handles GET /api/v1/tasks/{id}.
func (s *Server) GetTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	return s.respondWithTask(c, http.StatusOK, id)
}

// CancelTask handles DELETE /api/v1/tasks/{id}.
func (s *Server) CancelTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	cmd, err := commands.NewCancelTaskCommand(id, principalFrom(c).UID)
	if err != nil {
		return s.problem(c, err)
	}
	if err = s.h.CancelTask.Handle(c.Request().Context(), cmd); err != nil {
		return s.problem(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DiscardTask handles POST /api/v1/tasks/{id}/discard.
func (s *Server) DiscardTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	cmd, err := commands.NewDiscardTaskCommand(id, principalFrom(c).UID)
	if err != nil {
		return s.problem(c, err)
	}
	if err = s.h.DiscardTask.Handle(c.Request().Context(), cmd); err != nil {
		return s.problem(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ClaimTask handles POST /api/v1/tasks/{id}/claim.
func (s *Server) ClaimTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	principal := principalFrom(c)
	cmd, err := commands.NewClaimTaskCommand(id, principal.UID, principal.Email)
	if err != nil {
		return s.problem(c, err)
	}
	if err = s.h.ClaimTask.Handle(c.Request().Context(), cmd); err != nil {
		return s.problem(c, err)
	}
	return s.respondWithTask(c, http.StatusOK, id)
}

// StartTracking handles POST /api/v1/tasks/{id}/start.
func (s *Server) StartTracking(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	cmd, err := commands.NewStartTrackingCommand(id, principalFrom(c).UID)
	if err != nil {
		return s.problem(c, err)
	}
	if err = s.h.StartTracking.Handle(c.Request().Context(), cmd); err != nil {
		return s.problem(c, err)
	}
	return s.respondWithTask(c, http.StatusOK, id)
}

// PauseTracking handles POST /api/v1/tasks/{id}/pause.
func (s *Server) PauseTracking(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	cmd, err := commands.NewPauseTrackingCommand(id, principalFrom(c).UID)
	if err != nil {
		return s.problem(c, err)
	}
	if err = s.h.PauseTracking.Handle(c.Request().Context(), cmd); err != nil {
		return s.problem(c, err)
	}
	return s.respondWithTask(c, http.StatusOK, id)
}

// CompleteTask handles POST /api/v1/tasks/{id}/complete.
func (s *Server) CompleteTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	cmd, err := commands.NewCompleteTaskCommand(id, principalFrom(c).UID)
	if err != nil {
		return s.problem(c, err)
	}
	if err = s.h.CompleteTask.Handle(c.Request().Context(), cmd); err != nil {
		return s.problem(c, err)
	}
	return s.respondWithTask(c, http.StatusOK, id)
}

// RecordLocation handles POST /api/v1/tasks/{id}/location. Clients that
// report their own position use it instead of the simulated stream.
func (s *Server) RecordLocation(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	var req locationRequest
	if err = bindBody(c, &req); err != nil {
		return err
	}

	point, err := kernel.NewGeoPoint(*req.Lat, *req.Lng)
	if err != nil {
		return s.problem(c, err)
	}
	at := time.Now()
	if req.At != nil {
		at = *req.At
	}

	cmd, err := commands.NewRecordLocationCommand(id, principalFrom(c).UID, point, at)
	if err != nil {
		return s.problem(c, err)
	}
	if err = s.h.RecordLocation.Handle(c.Request().Context(), cmd); err != nil {
		return s.problem(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SubmitRating handles POST /api/v1/tasks/{id}/rating.
func (s *Server) SubmitRating(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	var req ratingRequest
	if err = bindBody(c, &req); err != nil {
		return err
	}

	cmd, err := commands.NewSubmitRatingCommand(id, principalFrom(c).UID, *req.Score)
	if err != nil {
		return s.problem(c, err)
	}
	if err = s.h.SubmitRating.Handle(c.Request().Context(), cmd); err != nil {
		return s.problem(c, err)
	}
	return s.respondWithTask(c, http.StatusOK, id)
}

// ListCustomerTasks handles GET /api/v1/customer/tasks.
func (s *Server) ListCustomerTasks(c echo.Context) error {
	query, err := queries.NewListCustomerTasksQuery(principalFrom(c).UID)
	if err != nil {
		return s.problem(c, err)
	}
	return s.listTasks(c, query)
}

// ListCourierTasks handles GET /api/v1/courier/tasks.
func (s *Server) ListCourierTasks(c echo.Context) error {
	view, err := courierView(c)
	if err != nil {
		return err
	}
	query, err := queries.NewListCourierTasksQuery(principalFrom(c).UID, view)
	if err != nil {
		return s.problem(c, err)
	}
	return s.listTasks(c, query)
}

func (s *Server) listTasks(c echo.Context, query queries.TaskListQuery) error {
	views, err := s.h.ListTasks.Handle(c.Request().Context(), query)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, views)
}
