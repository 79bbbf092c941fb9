package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/todo_list/internal/events"
	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/repo"
	"github.com/Skotchmaster/todo_list/internal/secret"
	"github.com/Skotchmaster/todo_list/pkg/logging"
	"github.com/Skotchmaster/todo_list/pkg/tokens"
)

type AuthService struct {
	Repo   *repo.GormRepo
	Codec  *secret.Codec
	Tokens *tokens.Issuer
	TTL    time.Duration
	Events events.Publisher
}

type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        *models.User
}

// Authenticate checks a username/password pair. Unknown usernames and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.authenticate", "username", username)

	user, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("authenticate_failed", "status", 401, "reason", "unknown username")
			return nil, newErr(ErrAuthentication, msgBadCredentials)
		}
		return nil, storageErr(err, "could not load user")
	}

	ok, err := s.Codec.VerifyPassword(password, user.EncryptedPassword)
	if err != nil {
		l.Error("authenticate_failed", "status", 500, "reason", "cannot decrypt stored password", "error", err)
		return nil, err
	}
	if !ok {
		l.Warn("authenticate_failed", "status", 401, "reason", "wrong password")
		return nil, newErr(ErrAuthentication, msgBadCredentials)
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, exp, err := s.Tokens.Issue(user.Username, user.ID, s.TTL)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign token", "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUsers, events.New(events.UserLoggedIn, user.ID))

	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   exp,
		User:        user,
	}, nil
}

// ResolveIdentity maps a bearer token to an active user. The token names the
// user by id and must still carry that user's current username, so a rename
// invalidates every token issued before it.
func (s *AuthService) ResolveIdentity(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.Tokens.Claims(token)
	if err != nil {
		return nil, &Error{Kind: ErrAuthentication, Message: msgInvalidToken, Cause: err}
	}

	user, err := s.Repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newErr(ErrAuthentication, msgInvalidToken)
		}
		return nil, storageErr(err, "could not load user")
	}
	if user.Username != claims.Subject {
		logging.FromContext(ctx).Warn("resolve_identity_failed", "svc", "auth.resolve", "status", 401,
			"reason", "username changed since issue", "user_id", user.ID)
		return nil, newErr(ErrAuthentication, msgInvalidToken)
	}
	if user.Disabled {
		return nil, newErr(ErrAccountDisabled, msgInactiveUser)
	}
	return user, nil
}
