package auth

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/tokens"
)

const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
	ctxRole   = "role"
	ctxClaims = "claims"
)

var ErrNoUser = errors.New("no authenticated user")

func setUserContext(c echo.Context, claims *tokens.Claims) error {
	userID, err := claims.UserID()
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	c.Set(ctxUserID, userID)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxRole, claims.Role)
	c.Set(ctxClaims, claims)
	return nil
}

// UserID returns the account id set by RequireAuth.
func UserID(c echo.Context) (uuid.UUID, error) {
	id, ok := c.Get(ctxUserID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNoUser
	}
	return id, nil
}

func Role(c echo.Context) string {
	role, _ := c.Get(ctxRole).(string)
	return role
}

func Claims(c echo.Context) *tokens.Claims {
	claims, _ := c.Get(ctxClaims).(*tokens.Claims)
	return claims
}

func tokenFromCookie(c echo.Context) string {
	cookie, err := c.Cookie(tokens.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
