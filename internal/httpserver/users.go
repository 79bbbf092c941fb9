package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/todo_list/internal/middleware/auth"
	"github.com/Skotchmaster/todo_list/internal/service"
	"github.com/Skotchmaster/todo_list/internal/transport"
	"github.com/Skotchmaster/todo_list/internal/util"
	"github.com/Skotchmaster/todo_list/pkg/logging"
)

type UsersHTTP struct {
	Svc *service.UserService
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := util.ParseID(c.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return id, nil
}

func page(c echo.Context) (int, int, error) {
	offset, err := util.ParseIntDefault(c.QueryParam("offset"), util.DefaultOffset)
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "offset must be an integer")
	}
	limit, err := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultLimit)
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
	}
	return offset, limit, nil
}

func (h *UsersHTTP) CreateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.create")

	var req transport.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_user_failed", "invalid body", err)
	}

	user, err := h.Svc.Register(ctx, auth.CurrentUser(c), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Disabled: req.Disabled,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		return fail(c, l, "create_user_failed", err)
	}

	l.Info("create_user_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"status":  statusSuccess,
		"message": "User created successfully!",
		"user":    user,
	})
}

func (h *UsersHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.list")

	offset, limit, err := page(c)
	if err != nil {
		return err
	}

	users, err := h.Svc.ListUsers(ctx, auth.CurrentUser(c), offset, limit)
	if err != nil {
		return fail(c, l, "list_users_failed", err)
	}
	if len(users) == 0 {
		return c.NoContent(http.StatusNoContent)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  statusSuccess,
		"message": "Items retrieved successfully!",
		"items":   users,
	})
}

func (h *UsersHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.get")

	id, err := pathID(c, "user_id")
	if err != nil {
		return err
	}

	user, err := h.Svc.GetUser(ctx, auth.CurrentUser(c), id)
	if err != nil {
		return fail(c, l, "get_user_failed", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  statusSuccess,
		"message": "User retrieved successfully!",
		"user":    user,
	})
}

func (h *UsersHTTP) PatchUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.patch")

	id, err := pathID(c, "user_id")
	if err != nil {
		return err
	}

	var req transport.PatchUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_user_failed", "invalid body", err)
	}

	user, err := h.Svc.PatchUser(ctx, auth.CurrentUser(c), id, service.PatchUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Disabled: req.Disabled,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		return fail(c, l, "patch_user_failed", err)
	}

	l.Info("patch_user_success", "user_id", id)
	return c.JSON(http.StatusOK, echo.Map{
		"status":  statusSuccess,
		"message": "User patched successfully!",
		"user":    user,
	})
}

func (h *UsersHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.delete")

	id, err := pathID(c, "user_id")
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteUser(ctx, auth.CurrentUser(c), id); err != nil {
		return fail(c, l, "delete_user_failed", err)
	}

	l.Info("delete_user_success", "user_id", id)
	return c.JSON(http.StatusOK, echo.Map{
		"status":  statusSuccess,
		"message": "User deleted successfully!",
	})
}
