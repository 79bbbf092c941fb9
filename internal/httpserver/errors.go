package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/todo_list/internal/service"
)

const msgInternal = "internal server error"

// statusFor maps a service error to its HTTP status and caller-facing message.
func statusFor(err error) (int, string) {
	msg := service.Message(err)
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrAccountDisabled):
		return http.StatusBadRequest, msg
	case errors.Is(err, service.ErrAuthentication):
		return http.StatusUnauthorized, msg
	case errors.Is(err, service.ErrPermission):
		return http.StatusForbidden, msg
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, msg
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// fail logs err under event and turns it into an echo.HTTPError.
func fail(c echo.Context, l *slog.Logger, event string, err error) error {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
	} else {
		l.Warn(event, "status", code, "reason", msg)
	}
	if code == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}
	return echo.NewHTTPError(code, msg)
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", 400, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

// ErrorHandler renders every error as the failure envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, msg := http.StatusInternalServerError, msgInternal
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"status": statusFailed, "message": msg})
}
