// Package search maintains the elasticsearch user index behind
// GET /user/search. Indexing is best-effort; the relational store stays the
// source of truth.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
)

type UserDoc struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"avatar_url"`
}

type Users struct {
	ES    *elasticsearch.Client
	Index string
}

func NewClient(url, username, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("search: create client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("search: cluster info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search: cluster error: %s: %s", res.Status(), body)
	}

	return client, nil
}

func NewUsers(es *elasticsearch.Client, index string) *Users {
	return &Users{ES: es, Index: index}
}

func (u *Users) IndexUser(ctx context.Context, doc UserDoc) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("search: encode doc: %w", err)
	}

	res, err := u.ES.Index(
		u.Index,
		&buf,
		u.ES.Index.WithDocumentID(strconv.FormatUint(uint64(doc.ID), 10)),
		u.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: index user: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search: index user: %s", res.Status())
	}
	return nil
}

func (u *Users) Search(ctx context.Context, query string, from, size int) (int64, []UserDoc, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"username^2", "first_name", "last_name"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := u.ES.Search(
		u.ES.Search.WithContext(ctx),
		u.ES.Search.WithIndex(u.Index),
		u.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: query: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: query: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source UserDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search: decode response: %w", err)
	}

	users := make([]UserDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		users[i] = hit.Source
	}
	return r.Hits.Total.Value, users, nil
}

// Paginate clamps page/size query values to an offset and limit.
func Paginate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	return (page - 1) * size, size
}
