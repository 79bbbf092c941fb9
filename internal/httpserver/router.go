package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/todo_list/internal/middleware/auth"
	pkgdb "github.com/Skotchmaster/todo_list/pkg/db"
	"github.com/Skotchmaster/todo_list/pkg/logging"
)

const (
	statusSuccess = "Success"
	statusFailed  = "Failed"
)

type Deps struct {
	DB    *gorm.DB
	Auth  *auth.BearerAuth
	Login *AuthHTTP
	Users *UsersHTTP
	ToDos *ToDosHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"message": "Hello To-Do List!"})
	})
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := pkgdb.Ping(ctx, d.DB); err != nil {
			logging.FromContext(ctx).Error("readiness_failed", "status", 503, "error", err)
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.NoContent(http.StatusOK)
	})

	e.POST("/users", d.Users.CreateUser, d.Auth.OptionalAuth)
	e.POST("/users/auth", d.Login.Login)

	users := e.Group("/users", d.Auth.RequireAuth)
	users.GET("", d.Users.ListUsers)
	users.GET("/:user_id", d.Users.GetUser)
	users.PATCH("/:user_id", d.Users.PatchUser)
	users.DELETE("/:user_id", d.Users.DeleteUser)

	users.POST("/:user_id/todos", d.ToDos.CreateToDo)
	users.GET("/:user_id/todos", d.ToDos.ListUserToDos)
	users.GET("/:user_id/todos/search", d.ToDos.SearchToDos)
	users.GET("/:user_id/todos/:todo_id", d.ToDos.GetToDo)
	users.PATCH("/:user_id/todos/:todo_id", d.ToDos.PatchToDo)
	users.DELETE("/:user_id/todos/:todo_id", d.ToDos.DeleteToDo)

	e.GET("/todos", d.ToDos.ListAllToDos, d.Auth.RequireAuth)
}
