// Package search keeps an Elasticsearch index of the course catalog and
// runs full-text queries against it.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/iliyamo/lms-backend/internal/model"
)

// Document is the indexed projection of a course.
type Document struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Categories  string   `json:"categories,omitempty"`
	Tags        []string `json:"tags"`
	Level       string   `json:"level"`
	Price       float64  `json:"price"`
	Ratings     float64  `json:"ratings"`
	Thumbnail   string   `json:"thumbnail"`
}

// FromCourse projects c into a Document.
func FromCourse(c model.Course) Document {
	return Document{
		ID: c.ID, Name: c.Name, Description: c.Description, Categories: c.Categories,
		Tags: c.Tags, Level: c.Level, Price: c.Price, Ratings: c.Ratings, Thumbnail: c.Thumbnail,
	}
}

// Result is one page of hits.
type Result struct {
	Total int64      `json:"total"`
	Hits  []Document `json:"courses"`
}

// Config addresses the cluster.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// Index wraps the course index.
type Index struct {
	es   *elasticsearch.Client
	name string
}

// NewIndex creates the client. It does not contact the cluster.
func NewIndex(cfg Config) (*Index, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: new client: %w", err)
	}
	return &Index{es: es, name: cfg.Index}, nil
}

// Ping checks the cluster answers.
func (ix *Index) Ping(ctx context.Context) error {
	res, err := ix.es.Info(ix.es.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: info: %w", err)
	}
	defer res.Body.Close()
	return responseError("info", res.StatusCode, res.IsError(), res.Body)
}

// Put indexes (or reindexes) a course.
func (ix *Index) Put(ctx context.Context, c model.Course) error {
	body, err := json.Marshal(FromCourse(c))
	if err != nil {
		return fmt.Errorf("elasticsearch: encode %s: %w", c.ID, err)
	}
	res, err := ix.es.Index(ix.name, bytes.NewReader(body),
		ix.es.Index.WithContext(ctx),
		ix.es.Index.WithDocumentID(c.ID),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: index %s: %w", c.ID, err)
	}
	defer res.Body.Close()
	return responseError("index", res.StatusCode, res.IsError(), res.Body)
}

// Remove deletes a course from the index. A missing document is not an
// error.
func (ix *Index) Remove(ctx context.Context, id string) error {
	res, err := ix.es.Delete(ix.name, id, ix.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: delete %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	return responseError("delete", res.StatusCode, res.IsError(), res.Body)
}

// Search runs a fuzzy multi-field match. Name hits weigh double.
func (ix *Index) Search(ctx context.Context, query string, from, size int) (Result, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description", "tags", "categories"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return Result{}, fmt.Errorf("elasticsearch: encode query: %w", err)
	}

	res, err := ix.es.Search(
		ix.es.Search.WithContext(ctx),
		ix.es.Search.WithIndex(ix.name),
		ix.es.Search.WithBody(&buf),
	)
	if err != nil {
		return Result{}, fmt.Errorf("elasticsearch: search: %w", err)
	}
	defer res.Body.Close()
	if err := responseError("search", res.StatusCode, res.IsError(), res.Body); err != nil {
		return Result{}, err
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return Result{}, fmt.Errorf("elasticsearch: decode: %w", err)
	}
	out := Result{Total: r.Hits.Total.Value, Hits: make([]Document, len(r.Hits.Hits))}
	for i, h := range r.Hits.Hits {
		out.Hits[i] = h.Source
	}
	return out, nil
}

// Page turns 1-based page/size query values into from/size, clamping size
// to [1, 100] with a default of 10.
func Page(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	return (page - 1) * size, size
}

func responseError(op string, status int, isErr bool, body io.Reader) error {
	if !isErr {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(body, 512))
	return fmt.Errorf("elasticsearch: %s: status %d: %s", op, status, bytes.TrimSpace(msg))
}
