package http

import (
	"net/http"

	"courierdesk/internal/core/application/usecases/commands"
	"courierdesk/internal/core/application/usecases/queries"
	"courierdesk/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
)

// ListMessages handles GET /api/v1/tasks/{id}/messages.
func (s *Server) ListMessages(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	from, err := since(c)
	if err != nil {
		return err
	}

	query, err := queries.NewListMessagesQuery(id, principalFrom(c).UID, from)
	if err != nil {
		return s.problem(c, err)
	}
	views, err := s.h.ListMessages.Handle(c.Request().Context(), query)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, views)
}

// SendMessage handles POST /api/v1/tasks/{id}/messages.
func (s *Server) SendMessage(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	var req messageRequest
	if err = bindBody(c, &req); err != nil {
		return err
	}

	cmd, err := commands.NewSendMessageCommand(kernel.NewUUID(), id, principalFrom(c).UID, req.Text)
	if err != nil {
		return s.problem(c, err)
	}
	if err = s.h.SendMessage.Handle(c.Request().Context(), cmd); err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusCreated, messageRef{ID: cmd.MessageID().String()})
}
