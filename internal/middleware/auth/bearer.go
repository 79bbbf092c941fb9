package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/service"
	"github.com/Skotchmaster/todo_list/pkg/logging"
)

const currentUserKey = "current_user"

type Resolver interface {
	ResolveIdentity(ctx context.Context, token string) (*models.User, error)
}

type BearerAuth struct {
	Resolver Resolver
}

func NewBearerAuth(r Resolver) *BearerAuth {
	return &BearerAuth{Resolver: r}
}

// CurrentUser returns the user resolved for this request, or nil.
func CurrentUser(c echo.Context) *models.User {
	u, _ := c.Get(currentUserKey).(*models.User)
	return u
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
}

func (m *BearerAuth) resolve(c echo.Context, header string) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.bearer")

	token, ok := bearerToken(header)
	if !ok {
		l.Warn("auth_failed", "status", 401, "reason", "malformed authorization header")
		return unauthorized(c)
	}

	user, err := m.Resolver.ResolveIdentity(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountDisabled):
			l.Warn("auth_failed", "status", 400, "reason", "inactive user")
			return echo.NewHTTPError(http.StatusBadRequest, service.Message(err))
		case errors.Is(err, service.ErrAuthentication):
			l.Warn("auth_failed", "status", 401, "reason", "invalid token", "error", err)
			return unauthorized(c)
		default:
			l.Error("auth_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}

	c.Set(currentUserKey, user)
	return nil
}

// RequireAuth rejects requests without a valid bearer token of an active user.
func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := m.resolve(c, c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return err
		}
		return next(c)
	}
}

// OptionalAuth lets anonymous requests through but still validates a token
// when one is sent.
func (m *BearerAuth) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return next(c)
		}
		if err := m.resolve(c, header); err != nil {
			return err
		}
		return next(c)
	}
}
