package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/todo_list/internal/middleware/auth"
	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/service"
	"github.com/Skotchmaster/todo_list/internal/transport"
	"github.com/Skotchmaster/todo_list/pkg/logging"
)

type ToDosHTTP struct {
	Svc *service.ToDoService
}

func todoIDs(c echo.Context) (uint, uint, error) {
	userID, err := pathID(c, "user_id")
	if err != nil {
		return 0, 0, err
	}
	todoID, err := pathID(c, "todo_id")
	if err != nil {
		return 0, 0, err
	}
	return userID, todoID, nil
}

func todoList(c echo.Context, todos []models.ToDo, extra echo.Map) error {
	if len(todos) == 0 {
		return c.NoContent(http.StatusNoContent)
	}
	body := echo.Map{
		"status":  statusSuccess,
		"message": "To-dos retrieved successfully!",
		"todos":   todos,
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(http.StatusOK, body)
}

func (h *ToDosHTTP) CreateToDo(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "todos.create")

	userID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}

	var req transport.CreateToDoRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_todo_failed", "invalid body", err)
	}

	todo, err := h.Svc.CreateToDo(ctx, auth.CurrentUser(c), userID, service.CreateToDoInput{
		Description:        req.Description,
		Done:               req.Done,
		IsFavorite:         req.IsFavorite,
		ReminderDatetime:   req.ReminderDatetime,
		ExpirationDatetime: req.ExpirationDatetime,
	})
	if err != nil {
		return fail(c, l, "create_todo_failed", err)
	}

	l.Info("create_todo_success", "user_id", userID, "todo_id", todo.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"status":  statusSuccess,
		"message": "To-do created successfully!",
		"todo":    todo,
	})
}

func (h *ToDosHTTP) ListAllToDos(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "todos.list_all")

	offset, limit, err := page(c)
	if err != nil {
		return err
	}

	todos, err := h.Svc.ListAllToDos(ctx, auth.CurrentUser(c), offset, limit)
	if err != nil {
		return fail(c, l, "list_todos_failed", err)
	}
	return todoList(c, todos, nil)
}

func (h *ToDosHTTP) ListUserToDos(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "todos.list")

	userID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}
	offset, limit, err := page(c)
	if err != nil {
		return err
	}

	todos, err := h.Svc.ListUserToDos(ctx, auth.CurrentUser(c), userID, offset, limit)
	if err != nil {
		return fail(c, l, "list_user_todos_failed", err)
	}
	return todoList(c, todos, nil)
}

func (h *ToDosHTTP) SearchToDos(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "todos.search")

	userID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}
	offset, limit, err := page(c)
	if err != nil {
		return err
	}

	total, todos, err := h.Svc.SearchToDos(ctx, auth.CurrentUser(c), userID, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(c, l, "search_todos_failed", err)
	}
	return todoList(c, todos, echo.Map{"total": total})
}

func (h *ToDosHTTP) GetToDo(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "todos.get")

	userID, todoID, err := todoIDs(c)
	if err != nil {
		return err
	}

	todo, err := h.Svc.GetToDo(ctx, auth.CurrentUser(c), userID, todoID)
	if err != nil {
		return fail(c, l, "get_todo_failed", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  statusSuccess,
		"message": "To-do retrieved successfully!",
		"todo":    todo,
	})
}

func (h *ToDosHTTP) PatchToDo(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "todos.patch")

	userID, todoID, err := todoIDs(c)
	if err != nil {
		return err
	}

	var req transport.PatchToDoRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_todo_failed", "invalid body", err)
	}

	todo, err := h.Svc.PatchToDo(ctx, auth.CurrentUser(c), userID, todoID, service.PatchToDoInput{
		Description:        req.Description,
		Done:               req.Done,
		IsFavorite:         req.IsFavorite,
		ReminderDatetime:   req.ReminderDatetime,
		ExpirationDatetime: req.ExpirationDatetime,
	})
	if err != nil {
		return fail(c, l, "patch_todo_failed", err)
	}

	l.Info("patch_todo_success", "user_id", userID, "todo_id", todoID)
	return c.JSON(http.StatusOK, echo.Map{
		"status":  statusSuccess,
		"message": "To-do patched successfully!",
		"todo":    todo,
	})
}

func (h *ToDosHTTP) DeleteToDo(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "todos.delete")

	userID, todoID, err := todoIDs(c)
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteToDo(ctx, auth.CurrentUser(c), userID, todoID); err != nil {
		return fail(c, l, "delete_todo_failed", err)
	}

	l.Info("delete_todo_success", "user_id", userID, "todo_id", todoID)
	return c.JSON(http.StatusOK, echo.Map{
		"status":  statusSuccess,
		"message": "To-do deleted successfully!",
	})
}
