package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/todo_list/internal/service"
	"github.com/Skotchmaster/todo_list/internal/transport"
	"github.com/Skotchmaster/todo_list/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var form transport.LoginForm
	if err := c.Bind(&form); err != nil {
		return badRequest(l, "login_failed", "invalid form", err)
	}
	if form.Username == "" || form.Password == "" {
		return badRequest(l, "login_failed", "username and password are required", nil)
	}

	res, err := h.Svc.Login(ctx, form.Username, form.Password)
	if err != nil {
		return fail(c, l, "login_failed", err)
	}

	l.Info("login_success", "user_id", res.User.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"status":       statusSuccess,
		"message":      "Access token created successfully!",
		"access_token": res.AccessToken,
		"token_type":   res.TokenType,
	})
}
