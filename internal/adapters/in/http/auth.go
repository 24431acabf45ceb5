package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"courierdesk/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

// ErrInvalidToken is returned by verifiers for tokens that are malformed,
// expired or signed with the wrong key.
var ErrInvalidToken = errors.New("invalid token")

// Principal is the authenticated caller.
type Principal struct {
	UID   kernel.UserID
	Email string
}

// TokenVerifier turns a bearer token into a Principal.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// Authenticate requires a valid bearer token. Event stream clients that
// cannot set headers may pass it as the access_token query parameter.
func Authenticate(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return writeError(c, http.StatusUnauthorized, "missing bearer token")
			}

			principal, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				return writeError(c, http.StatusUnauthorized, "invalid authorization token")
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return c.QueryParam("access_token")
}

// principalFrom returns the caller set by Authenticate.
func principalFrom(c echo.Context) Principal {
	p, _ := c.Get(principalKey).(Principal)
	return p
}
