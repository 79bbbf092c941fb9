package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/todo_list/internal/models"
)

type call struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type fakeES struct {
	mu     sync.Mutex
	calls  []call
	status map[string]int
	reply  map[string]string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path

	f.mu.Lock()
	f.calls = append(f.calls, call{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})
	status, ok := f.status[key]
	reply := f.reply[key]
	f.mu.Unlock()

	if !ok {
		status = http.StatusOK
	}
	if reply == "" {
		reply = `{}`
	}
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply)
}

func (f *fakeES) last(t *testing.T) call {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func newFake(t *testing.T) (*fakeES, *ESIndex) {
	t.Helper()
	f := &fakeES{
		status: map[string]int{},
		reply: map[string]string{
			"GET /": `{"version":{"number":"9.0.0","build_flavor":"default"},"tagline":"You Know, for Search"}`,
		},
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, "", "")
	require.NoError(t, err)
	return f, NewESIndex(client, "todos")
}

func TestNewClient_ErrorStatus(t *testing.T) {
	f := &fakeES{status: map[string]int{"GET /": http.StatusUnauthorized}, reply: map[string]string{}}
	srv := httptest.NewServer(f)
	defer srv.Close()

	_, err := NewClient(srv.URL, "elastic", "wrong")
	require.Error(t, err)
}

func TestESIndex_IndexToDo(t *testing.T) {
	f, x := newFake(t)

	err := x.IndexToDo(context.Background(), &models.ToDo{ID: 5, UserID: 2, Description: "Buy milk", IsFavorite: true})
	require.NoError(t, err)

	c := f.last(t)
	assert.Equal(t, http.MethodPut, c.Method)
	assert.Equal(t, "/todos/_doc/5", c.Path)
	assert.Contains(t, c.Query, "refresh=true")

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(c.Body), &got))
	assert.EqualValues(t, 5, got["id"])
	assert.EqualValues(t, 2, got["user_id"])
	assert.Equal(t, "Buy milk", got["description"])
	assert.Equal(t, true, got["is_favorite"])
}

func TestESIndex_IndexToDo_ServerError(t *testing.T) {
	f, x := newFake(t)
	f.status["PUT /todos/_doc/5"] = http.StatusInternalServerError

	err := x.IndexToDo(context.Background(), &models.ToDo{ID: 5, UserID: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestESIndex_DeleteToDo(t *testing.T) {
	f, x := newFake(t)

	require.NoError(t, x.DeleteToDo(context.Background(), 9))
	c := f.last(t)
	assert.Equal(t, http.MethodDelete, c.Method)
	assert.Equal(t, "/todos/_doc/9", c.Path)

	f.status["DELETE /todos/_doc/9"] = http.StatusNotFound
	assert.NoError(t, x.DeleteToDo(context.Background(), 9))

	f.status["DELETE /todos/_doc/9"] = http.StatusServiceUnavailable
	assert.Error(t, x.DeleteToDo(context.Background(), 9))
}

func TestESIndex_DeleteUserToDos(t *testing.T) {
	f, x := newFake(t)

	require.NoError(t, x.DeleteUserToDos(context.Background(), 4))
	c := f.last(t)
	assert.Equal(t, http.MethodPost, c.Method)
	assert.Equal(t, "/todos/_delete_by_query", c.Path)
	assert.JSONEq(t, `{"query":{"term":{"user_id":4}}}`, c.Body)
}

func TestESIndex_EnsureIndex(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		f, x := newFake(t)
		require.NoError(t, x.EnsureIndex(context.Background()))
		c := f.last(t)
		assert.Equal(t, http.MethodHead, c.Method)
		assert.Equal(t, "/todos", c.Path)
	})

	t.Run("missing", func(t *testing.T) {
		f, x := newFake(t)
		f.status["HEAD /todos"] = http.StatusNotFound
		require.NoError(t, x.EnsureIndex(context.Background()))

		c := f.last(t)
		assert.Equal(t, http.MethodPut, c.Method)
		assert.Equal(t, "/todos", c.Path)
		assert.Contains(t, c.Body, `"user_id"`)
	})
}

func TestESIndex_Search(t *testing.T) {
	f, x := newFake(t)
	f.reply["POST /todos/_search"] = `{
	  "hits": {
	    "total": {"value": 2},
	    "hits": [
	      {"_id": "7", "_source": {"id": 7, "user_id": 3, "description": "Buy milk"}},
	      {"_id": "4", "_source": {"id": 4, "user_id": 3, "description": "Buy bread"}}
	    ]
	  }
	}`

	total, ids, err := x.Search(context.Background(), 3, "buy", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []uint{7, 4}, ids)

	c := f.last(t)
	assert.Equal(t, "/todos/_search", c.Path)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(c.Body), &body))
	assert.EqualValues(t, 0, body["from"])
	assert.EqualValues(t, 10, body["size"])
	assert.Contains(t, c.Body, `"fuzziness":"AUTO"`)
	assert.Contains(t, c.Body, `"user_id":3`)
}

func TestESIndex_Search_Error(t *testing.T) {
	f, x := newFake(t)
	f.status["POST /todos/_search"] = http.StatusBadRequest

	_, _, err := x.Search(context.Background(), 3, "buy", 0, 10)
	require.Error(t, err)
}
