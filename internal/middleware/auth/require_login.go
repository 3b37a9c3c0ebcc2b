package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/tokens"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*tokens.Claims, error)
}

type Middleware struct {
	Auth Authenticator
}

func New(a Authenticator) *Middleware {
	return &Middleware{Auth: a}
}

// RequireAuth admits requests carrying a valid session cookie.
func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := m.authenticate(c); err != nil {
			return err
		}
		return next(c)
	}
}

// RequireAdmin is RequireAuth restricted to admin accounts.
func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := m.authenticate(c); err != nil {
			return err
		}
		if Role(c) != models.RoleAdmin {
			logging.FromContext(c.Request().Context()).Warn("auth_error", "status", 403, "reason", "not an admin")
			return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights")
		}
		return next(c)
	}
}

func (m *Middleware) authenticate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("mw", "auth")

	claims, err := m.Auth.Authenticate(ctx, tokenFromCookie(c))
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			l.Warn("auth_error", "status", 401, "reason", service.Message(err))
			return echo.NewHTTPError(http.StatusUnauthorized, service.Message(err))
		}
		l.Error("auth_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return setUserContext(c, claims)
}
