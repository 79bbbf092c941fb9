// Package search keeps an Elasticsearch index of to-do descriptions and runs
// owner-scoped fuzzy queries against it.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/todo_list/internal/models"
)

// Index is what the to-do service needs from a search backend.
type Index interface {
	IndexToDo(ctx context.Context, t *models.ToDo) error
	DeleteToDo(ctx context.Context, id uint) error
	DeleteUserToDos(ctx context.Context, userID uint) error
	Search(ctx context.Context, userID uint, q string, from, size int) (int64, []uint, error)
}

type ESIndex struct {
	ES    *elasticsearch.Client
	Index string
}

type doc struct {
	ID          uint   `json:"id"`
	UserID      uint   `json:"user_id"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
	IsFavorite  bool   `json:"is_favorite"`
}

const mapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "long"},
      "user_id":     {"type": "long"},
      "description": {"type": "text"},
      "done":        {"type": "boolean"},
      "is_favorite": {"type": "boolean"}
    }
  }
}`

func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: new client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseErr("info", res.StatusCode, res.Body)
	}
	return client, nil
}

func NewESIndex(client *elasticsearch.Client, index string) *ESIndex {
	return &ESIndex{ES: client, Index: index}
}

func responseErr(op string, status int, body io.Reader) error {
	b, _ := io.ReadAll(io.LimitReader(body, 512))
	return fmt.Errorf("elasticsearch: %s: status %d: %s", op, status, bytes.TrimSpace(b))
}

// EnsureIndex creates the index with its mapping unless it already exists.
func (x *ESIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.ES.Indices.Exists([]string{x.Index}, x.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elasticsearch: exists: status %d", res.StatusCode)
	}

	res, err = x.ES.Indices.Create(x.Index,
		x.ES.Indices.Create.WithContext(ctx),
		x.ES.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseErr("create index", res.StatusCode, res.Body)
	}
	return nil
}

func (x *ESIndex) IndexToDo(ctx context.Context, t *models.ToDo) error {
	body, err := json.Marshal(doc{
		ID:          t.ID,
		UserID:      t.UserID,
		Description: t.Description,
		Done:        t.Done,
		IsFavorite:  t.IsFavorite,
	})
	if err != nil {
		return fmt.Errorf("elasticsearch: encode doc: %w", err)
	}

	res, err := x.ES.Index(x.Index, bytes.NewReader(body),
		x.ES.Index.WithContext(ctx),
		x.ES.Index.WithDocumentID(strconv.FormatUint(uint64(t.ID), 10)),
		x.ES.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseErr("index", res.StatusCode, res.Body)
	}
	return nil
}

// DeleteToDo removes the document; a document that is already gone is not an error.
func (x *ESIndex) DeleteToDo(ctx context.Context, id uint) error {
	res, err := x.ES.Delete(x.Index, strconv.FormatUint(uint64(id), 10),
		x.ES.Delete.WithContext(ctx),
		x.ES.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: delete: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseErr("delete", res.StatusCode, res.Body)
	}
	return nil
}

func (x *ESIndex) DeleteUserToDos(ctx context.Context, userID uint) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]any{
		"query": map[string]any{"term": map[string]any{"user_id": userID}},
	}); err != nil {
		return fmt.Errorf("elasticsearch: encode query: %w", err)
	}

	res, err := x.ES.DeleteByQuery([]string{x.Index}, &buf,
		x.ES.DeleteByQuery.WithContext(ctx),
		x.ES.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: delete by query: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseErr("delete by query", res.StatusCode, res.Body)
	}
	return nil
}

func searchBody(userID uint, q string, from, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{
					map[string]any{
						"match": map[string]any{
							"description": map[string]any{
								"query":     q,
								"fuzziness": "AUTO",
							},
						},
					},
				},
				"filter": []any{
					map[string]any{"term": map[string]any{"user_id": userID}},
				},
			},
		},
		"from": from,
		"size": size,
	}
}

// Search returns the total hit count and the ids of the matching page, best match first.
func (x *ESIndex) Search(ctx context.Context, userID uint, q string, from, size int) (int64, []uint, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchBody(userID, q, from, size)); err != nil {
		return 0, nil, fmt.Errorf("elasticsearch: encode query: %w", err)
	}

	res, err := x.ES.Search(
		x.ES.Search.WithContext(ctx),
		x.ES.Search.WithIndex(x.Index),
		x.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("elasticsearch: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseErr("search", res.StatusCode, res.Body)
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source doc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("elasticsearch: decode: %w", err)
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	return r.Hits.Total.Value, ids, nil
}
