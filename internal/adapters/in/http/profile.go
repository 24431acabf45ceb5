package http

import (
	"net/http"
	"strings"

	"courierdesk/internal/core/application/usecases/commands"
	"courierdesk/internal/core/application/usecases/queries"
	"courierdesk/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
)

// GetProfile handles GET /api/v1/profile.
func (s *Server) GetProfile(c echo.Context) error {
	query, err := queries.NewGetProfileQuery(principalFrom(c).UID)
	if err != nil {
		return s.problem(c, err)
	}
	view, err := s.h.GetProfile.Handle(c.Request().Context(), query)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// SaveProfile handles PUT /api/v1/profile. The email defaults to the one
// carried by the token.
func (s *Server) SaveProfile(c echo.Context) error {
	var req profileRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	principal := principalFrom(c)
	role, err := kernel.ParseRole(req.Role)
	if err != nil {
		return s.problem(c, err)
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = principal.Email
	}

	cmd, err := commands.NewUpsertProfileCommand(principal.UID, req.FullName, email, role)
	if err != nil {
		return s.problem(c, err)
	}
	if err = s.h.UpsertProfile.Handle(c.Request().Context(), cmd); err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, queries.NewProfileView(cmd.Profile()))
}
