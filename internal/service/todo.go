package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/todo_list/internal/events"
	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/repo"
	"github.com/Skotchmaster/todo_list/internal/search"
	"github.com/Skotchmaster/todo_list/pkg/logging"
)

type ToDoService struct {
	Repo   *repo.GormRepo
	Index  search.Index // nil: search runs against the database
	Events events.Publisher
	Now    func() time.Time
}

type CreateToDoInput struct {
	Description        string
	Done               bool
	IsFavorite         bool
	ReminderDatetime   *string
	ExpirationDatetime *string
}

// PatchToDoInput holds the supplied fields only. An empty date string clears
// that date.
type PatchToDoInput struct {
	Description        *string
	Done               *bool
	IsFavorite         *bool
	ReminderDatetime   *string
	ExpirationDatetime *string
}

func (in PatchToDoInput) empty() bool {
	return in.Description == nil && in.Done == nil && in.IsFavorite == nil &&
		in.ReminderDatetime == nil && in.ExpirationDatetime == nil
}

func (s *ToDoService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func toDoNotFound(userID, id uint) error {
	return newErr(ErrNotFound, "To-do with id %d for user with id %d not found!", id, userID)
}

// owner authorizes requester against ownerID and then checks the owner exists.
func (s *ToDoService) owner(ctx context.Context, requester *models.User, ownerID uint) error {
	if err := Authorize(requester, ownerID); err != nil {
		return err
	}
	if _, err := s.Repo.GetUserByID(ctx, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return userNotFound(ownerID)
		}
		return storageErr(err, "could not load user")
	}
	return nil
}

func (s *ToDoService) load(ctx context.Context, ownerID, id uint) (*models.ToDo, error) {
	todo, err := s.Repo.GetToDo(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, toDoNotFound(ownerID, id)
		}
		return nil, storageErr(err, "could not load to-do")
	}
	return todo, nil
}

func (s *ToDoService) reindex(ctx context.Context, todo *models.ToDo) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexToDo(ctx, todo); err != nil {
		logging.FromContext(ctx).Warn("index_todo_failed", "todo_id", todo.ID, "error", err)
	}
}

func (s *ToDoService) CreateToDo(ctx context.Context, requester *models.User, ownerID uint, in CreateToDoInput) (*models.ToDo, error) {
	l := logging.FromContext(ctx).With("svc", "todos.create", "user_id", ownerID)

	if err := s.owner(ctx, requester, ownerID); err != nil {
		return nil, err
	}
	if err := checkLength("description", in.Description, maxDescription); err != nil {
		return nil, err
	}
	reminder, err := parseOptionalDatetime(in.ReminderDatetime)
	if err != nil {
		return nil, err
	}
	expiration, err := parseOptionalDatetime(in.ExpirationDatetime)
	if err != nil {
		return nil, err
	}
	if err := checkReminder(reminder, expiration); err != nil {
		return nil, err
	}

	now := s.now()
	todo := &models.ToDo{
		UserID:             ownerID,
		Description:        in.Description,
		Done:               in.Done,
		IsFavorite:         in.IsFavorite,
		ReminderDatetime:   reminder,
		ExpirationDatetime: expiration,
		WriteDatetime:      now,
		CreationDatetime:   now,
	}
	if err := s.Repo.CreateToDo(ctx, todo); err != nil {
		l.Error("create_todo_failed", "status", 500, "error", err)
		return nil, storageErr(err, "could not create to-do")
	}

	s.reindex(ctx, todo)
	ev := events.New(events.ToDoCreated, ownerID)
	ev.ToDoID = todo.ID
	ev.Data = todo
	publish(ctx, s.Events, events.TopicToDos, ev)
	return todo, nil
}

func (s *ToDoService) ListAllToDos(ctx context.Context, requester *models.User, offset, limit int) ([]models.ToDo, error) {
	if err := RequireAdmin(requester); err != nil {
		return nil, err
	}
	if err := checkPage(offset, limit); err != nil {
		return nil, err
	}
	todos, err := s.Repo.ListToDos(ctx, offset, limit)
	if err != nil {
		return nil, storageErr(err, "could not list to-dos")
	}
	return todos, nil
}

func (s *ToDoService) ListUserToDos(ctx context.Context, requester *models.User, ownerID uint, offset, limit int) ([]models.ToDo, error) {
	if err := s.owner(ctx, requester, ownerID); err != nil {
		return nil, err
	}
	if err := checkPage(offset, limit); err != nil {
		return nil, err
	}
	todos, err := s.Repo.ListUserToDos(ctx, ownerID, offset, limit)
	if err != nil {
		return nil, storageErr(err, "could not list to-dos")
	}
	return todos, nil
}

func (s *ToDoService) GetToDo(ctx context.Context, requester *models.User, ownerID, id uint) (*models.ToDo, error) {
	if err := s.owner(ctx, requester, ownerID); err != nil {
		return nil, err
	}
	return s.load(ctx, ownerID, id)
}

// PatchToDo applies the supplied fields. The reminder/expiration ordering is
// checked against the merged result. write_datetime advances only when a
// value changes; a patch that changes nothing is not written.
func (s *ToDoService) PatchToDo(ctx context.Context, requester *models.User, ownerID, id uint, in PatchToDoInput) (*models.ToDo, error) {
	l := logging.FromContext(ctx).With("svc", "todos.patch", "user_id", ownerID, "todo_id", id)

	if err := s.owner(ctx, requester, ownerID); err != nil {
		return nil, err
	}
	todo, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, newErr(ErrValidation, "No data provided to update to-do!")
	}

	reminder, expiration := todo.ReminderDatetime, todo.ExpirationDatetime
	if in.ReminderDatetime != nil {
		if reminder, err = parseOptionalDatetime(in.ReminderDatetime); err != nil {
			return nil, err
		}
	}
	if in.ExpirationDatetime != nil {
		if expiration, err = parseOptionalDatetime(in.ExpirationDatetime); err != nil {
			return nil, err
		}
	}
	if err := checkReminder(reminder, expiration); err != nil {
		return nil, err
	}

	changed := false
	if in.Description != nil {
		if err := checkLength("description", *in.Description, maxDescription); err != nil {
			return nil, err
		}
		if *in.Description != todo.Description {
			todo.Description = *in.Description
			changed = true
		}
	}
	if in.Done != nil && *in.Done != todo.Done {
		todo.Done = *in.Done
		changed = true
	}
	if in.IsFavorite != nil && *in.IsFavorite != todo.IsFavorite {
		todo.IsFavorite = *in.IsFavorite
		changed = true
	}
	if !sameTime(reminder, todo.ReminderDatetime) {
		todo.ReminderDatetime = reminder
		changed = true
	}
	if !sameTime(expiration, todo.ExpirationDatetime) {
		todo.ExpirationDatetime = expiration
		changed = true
	}

	if !changed {
		return todo, nil
	}

	todo.WriteDatetime = s.now()
	if err := s.Repo.UpdateToDo(ctx, todo); err != nil {
		l.Error("patch_todo_failed", "status", 500, "error", err)
		return nil, storageErr(err, "could not update to-do")
	}

	s.reindex(ctx, todo)
	ev := events.New(events.ToDoUpdated, ownerID)
	ev.ToDoID = todo.ID
	ev.Data = todo
	publish(ctx, s.Events, events.TopicToDos, ev)
	return todo, nil
}

func (s *ToDoService) DeleteToDo(ctx context.Context, requester *models.User, ownerID, id uint) error {
	l := logging.FromContext(ctx).With("svc", "todos.delete", "user_id", ownerID, "todo_id", id)

	if err := s.owner(ctx, requester, ownerID); err != nil {
		return err
	}
	if err := s.Repo.DeleteToDo(ctx, ownerID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return toDoNotFound(ownerID, id)
		}
		l.Error("delete_todo_failed", "status", 500, "error", err)
		return storageErr(err, "could not delete to-do")
	}

	if s.Index != nil {
		if err := s.Index.DeleteToDo(ctx, id); err != nil {
			l.Warn("unindex_todo_failed", "error", err)
		}
	}
	ev := events.New(events.ToDoDeleted, ownerID)
	ev.ToDoID = id
	publish(ctx, s.Events, events.TopicToDos, ev)
	return nil
}

// SearchToDos matches q against the owner's to-do descriptions. It uses the
// search index when one is configured and falls back to the database when
// there is none or the index fails.
func (s *ToDoService) SearchToDos(ctx context.Context, requester *models.User, ownerID uint, q string, offset, limit int) (int64, []models.ToDo, error) {
	l := logging.FromContext(ctx).With("svc", "todos.search", "user_id", ownerID)

	if err := s.owner(ctx, requester, ownerID); err != nil {
		return 0, nil, err
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, newErr(ErrValidation, "Search query must not be empty!")
	}
	if err := checkPage(offset, limit); err != nil {
		return 0, nil, err
	}

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, ownerID, q, offset, limit)
		if err == nil {
			todos, err := s.Repo.GetUserToDosByIDs(ctx, ownerID, ids)
			if err != nil {
				return 0, nil, storageErr(err, "could not load to-dos")
			}
			return total, todos, nil
		}
		l.Warn("index_search_failed", "reason", "falling back to database", "error", err)
	}

	total, todos, err := s.Repo.SearchUserToDos(ctx, ownerID, q, offset, limit)
	if err != nil {
		return 0, nil, storageErr(err, "could not search to-dos")
	}
	return total, todos, nil
}
