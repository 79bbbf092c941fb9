package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/todo_list/internal/events"
	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/repo"
	"github.com/Skotchmaster/todo_list/internal/search"
	"github.com/Skotchmaster/todo_list/internal/secret"
	"github.com/Skotchmaster/todo_list/pkg/logging"
)

type UserService struct {
	Repo   *repo.GormRepo
	Codec  *secret.Codec
	Events events.Publisher
	Index  search.Index
	Now    func() time.Time
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Disabled *bool
	IsAdmin  *bool
}

type PatchUserInput struct {
	Username *string
	Email    *string
	Password *string
	Disabled *bool
	IsAdmin  *bool
}

func (in PatchUserInput) empty() bool {
	return in.Username == nil && in.Email == nil && in.Password == nil && in.Disabled == nil && in.IsAdmin == nil
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func userNotFound(id uint) error {
	return newErr(ErrNotFound, "User with id %d not found!", id)
}

// Register creates a user. requester may be nil; only an admin requester may
// create a user with privilege flags set.
func (s *UserService) Register(ctx context.Context, requester *models.User, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.register")

	if err := checkLength("username", in.Username, maxUsername); err != nil {
		return nil, err
	}
	if err := checkEmail(in.Email); err != nil {
		return nil, err
	}
	if err := checkLength("password", in.Password, maxPassword); err != nil {
		return nil, err
	}
	if err := requireAdminForFlags(requester, in.IsAdmin, in.Disabled, false, false); err != nil {
		l.Warn("register_failed", "status", 403, "reason", "privilege flags set by non-admin")
		return nil, err
	}

	enc, err := s.Codec.Encrypt(in.Password)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot encrypt password", "error", err)
		return nil, err
	}

	now := s.now()
	user := &models.User{
		Username:          in.Username,
		Email:             in.Email,
		EncryptedPassword: enc,
		WriteDatetime:     now,
		CreationDatetime:  now,
	}
	if in.IsAdmin != nil {
		user.IsAdmin = *in.IsAdmin
	}
	if in.Disabled != nil {
		user.Disabled = *in.Disabled
	}

	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			l.Warn("register_failed", "status", 400, "reason", "email in use")
			return nil, newErr(ErrConflict, msgEmailInUse)
		}
		l.Error("register_failed", "status", 500, "error", err)
		return nil, storageErr(err, "could not create user")
	}

	ev := events.New(events.UserRegistered, user.ID)
	ev.Data = user
	publish(ctx, s.Events, events.TopicUsers, ev)

	l.Info("user_registered", "user_id", user.ID)
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, requester *models.User, offset, limit int) ([]models.User, error) {
	if err := RequireAdmin(requester); err != nil {
		return nil, err
	}
	if err := checkPage(offset, limit); err != nil {
		return nil, err
	}
	users, err := s.Repo.ListUsers(ctx, offset, limit)
	if err != nil {
		return nil, storageErr(err, "could not list users")
	}
	return users, nil
}

func (s *UserService) loadUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userNotFound(id)
		}
		return nil, storageErr(err, "could not load user")
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, requester *models.User, id uint) (*models.User, error) {
	if err := Authorize(requester, id); err != nil {
		return nil, err
	}
	return s.loadUser(ctx, id)
}

// PatchUser applies the supplied fields. write_datetime advances only when a
// stored value actually changes; a patch that changes nothing is not written.
func (s *UserService) PatchUser(ctx context.Context, requester *models.User, id uint, in PatchUserInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.patch", "user_id", id)

	if err := Authorize(requester, id); err != nil {
		return nil, err
	}
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, newErr(ErrValidation, "No data provided to update user!")
	}
	if err := requireAdminForFlags(requester, in.IsAdmin, in.Disabled, user.IsAdmin, user.Disabled); err != nil {
		l.Warn("patch_user_failed", "status", 403, "reason", "privilege flags changed by non-admin")
		return nil, err
	}

	changed := false
	if in.Username != nil {
		if err := checkLength("username", *in.Username, maxUsername); err != nil {
			return nil, err
		}
		if *in.Username != user.Username {
			user.Username = *in.Username
			changed = true
		}
	}
	if in.Email != nil {
		if err := checkEmail(*in.Email); err != nil {
			return nil, err
		}
		if *in.Email != user.Email {
			user.Email = *in.Email
			changed = true
		}
	}
	if in.Password != nil {
		if err := checkLength("password", *in.Password, maxPassword); err != nil {
			return nil, err
		}
		same, err := s.Codec.VerifyPassword(*in.Password, user.EncryptedPassword)
		if err != nil {
			l.Error("patch_user_failed", "status", 500, "reason", "cannot decrypt stored password", "error", err)
			return nil, err
		}
		if !same {
			enc, err := s.Codec.Encrypt(*in.Password)
			if err != nil {
				l.Error("patch_user_failed", "status", 500, "reason", "cannot encrypt password", "error", err)
				return nil, err
			}
			user.EncryptedPassword = enc
			changed = true
		}
	}
	if in.Disabled != nil && *in.Disabled != user.Disabled {
		user.Disabled = *in.Disabled
		changed = true
	}
	if in.IsAdmin != nil && *in.IsAdmin != user.IsAdmin {
		user.IsAdmin = *in.IsAdmin
		changed = true
	}

	if !changed {
		return user, nil
	}

	user.WriteDatetime = s.now()
	if err := s.Repo.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			l.Warn("patch_user_failed", "status", 400, "reason", "email in use")
			return nil, newErr(ErrConflict, msgEmailInUse)
		}
		l.Error("patch_user_failed", "status", 500, "error", err)
		return nil, storageErr(err, "could not update user")
	}

	ev := events.New(events.UserUpdated, user.ID)
	ev.Data = user
	publish(ctx, s.Events, events.TopicUsers, ev)
	return user, nil
}

// DeleteUser removes the user together with all of its to-dos.
func (s *UserService) DeleteUser(ctx context.Context, requester *models.User, id uint) error {
	l := logging.FromContext(ctx).With("svc", "users.delete", "user_id", id)

	if err := Authorize(requester, id); err != nil {
		return err
	}
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return userNotFound(id)
		}
		l.Error("delete_user_failed", "status", 500, "error", err)
		return storageErr(err, "could not delete user")
	}

	if s.Index != nil {
		if err := s.Index.DeleteUserToDos(ctx, id); err != nil {
			l.Warn("unindex_user_todos_failed", "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicUsers, events.New(events.UserDeleted, id))
	return nil
}

// EnsureAdmin makes sure an admin account with the given email exists,
// promoting an existing account if needed. It reports whether anything changed.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (*models.User, bool, error) {
	existing, err := s.Repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin && !existing.Disabled {
			return existing, false, nil
		}
		existing.IsAdmin = true
		existing.Disabled = false
		existing.WriteDatetime = s.now()
		if err := s.Repo.UpdateUser(ctx, existing); err != nil {
			return nil, false, storageErr(err, "could not promote admin")
		}
		return existing, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, false, storageErr(err, "could not look up admin")
	}

	yes := true
	user, err := s.Register(ctx, &models.User{IsAdmin: true}, RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
		IsAdmin:  &yes,
	})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
