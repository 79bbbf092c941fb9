package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/todo_list/internal/events"
	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/repo"
	"github.com/Skotchmaster/todo_list/internal/secret"
	pkgdb "github.com/Skotchmaster/todo_list/pkg/db"
	"github.com/Skotchmaster/todo_list/pkg/tokens"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type recorded struct {
	Topic string
	Event events.Event
}

type recorder struct {
	mu  sync.Mutex
	got []recorded
	err error
}

func (r *recorder) Publish(_ context.Context, topic string, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, recorded{Topic: topic, Event: ev})
	return r.err
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.got))
	for _, g := range r.got {
		out = append(out, g.Event.Type)
	}
	return out
}

type fakeIndex struct {
	mu      sync.Mutex
	docs    map[uint]models.ToDo
	hits    []uint
	failing bool
}

func newFakeIndex() *fakeIndex { return &fakeIndex{docs: map[uint]models.ToDo{}} }

var errIndexDown = errors.New("index down")

func (f *fakeIndex) IndexToDo(_ context.Context, t *models.ToDo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errIndexDown
	}
	f.docs[t.ID] = *t
	return nil
}

func (f *fakeIndex) DeleteToDo(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errIndexDown
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) DeleteUserToDos(_ context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, d := range f.docs {
		if d.UserID == userID {
			delete(f.docs, id)
		}
	}
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ uint, _ string, _, _ int) (int64, []uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return 0, nil, errIndexDown
	}
	return int64(len(f.hits)), f.hits, nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	Repo   *repo.GormRepo
	Codec  *secret.Codec
	Events *recorder
	Index  *fakeIndex
	Clock  *clock
	Users  *UserService
	Auth   *AuthService
	ToDos  *ToDoService
	Issuer *tokens.Issuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := pkgdb.Open(ctx, pkgdb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkgdb.Close(db) })

	r := repo.New(db)
	require.NoError(t, r.Migrate(ctx))

	codec, err := secret.NewCodec(testKey)
	require.NoError(t, err)

	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	issuer, err := tokens.NewIssuer([]byte("test-jwt-secret"), "HS256")
	require.NoError(t, err)
	issuer.WithClock(clk.Now)

	rec := &recorder{}
	idx := newFakeIndex()

	return &fixture{
		Repo:   r,
		Codec:  codec,
		Events: rec,
		Index:  idx,
		Clock:  clk,
		Issuer: issuer,
		Users:  &UserService{Repo: r, Codec: codec, Events: rec, Index: idx, Now: clk.Now},
		Auth:   &AuthService{Repo: r, Codec: codec, Tokens: issuer, TTL: 30 * time.Minute, Events: rec},
		ToDos:  &ToDoService{Repo: r, Index: idx, Events: rec, Now: clk.Now},
	}
}

func (f *fixture) register(t *testing.T, username, email, password string) *models.User {
	t.Helper()
	u, err := f.Users.Register(context.Background(), nil, RegisterInput{Username: username, Email: email, Password: password})
	require.NoError(t, err)
	return u
}

func (f *fixture) admin(t *testing.T) *models.User {
	t.Helper()
	u, _, err := f.Users.EnsureAdmin(context.Background(), "root", "root@example.com", "rootpw")
	require.NoError(t, err)
	return u
}

func ptr[T any](v T) *T { return &v }
