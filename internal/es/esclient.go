package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/museum/internal/models"
)

// Searcher finds museums and categories by free text and keeps its index in
// step with catalog writes.
type Searcher interface {
	SearchMuseums(ctx context.Context, q string, from, size int) (int64, []models.Museum, error)
	SearchCategories(ctx context.Context, museumID uint, q string, from, size int) (int64, []models.Category, error)
	IndexMuseum(ctx context.Context, m *models.Museum) error
	DeleteMuseum(ctx context.Context, id uint) error
	IndexCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id uint) error
}

type Config struct {
	URL      string
	User     string
	Password string
	// Index is the museum index; categories go to Index + "_categories".
	Index string
}

type Client struct {
	es            *elasticsearch.Client
	museumIndex   string
	categoryIndex string
}

var _ Searcher = (*Client)(nil)

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error response %s: %s", res.Status(), body)
	}

	return &Client{es: client, museumIndex: cfg.Index, categoryIndex: cfg.Index + "_categories"}, nil
}

func (c *Client) search(ctx context.Context, index string, query map[string]any, from, size int) (*searchResponse, error) {
	body := map[string]any{
		"query": query,
		"from":  from,
		"size":  size,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("search: encode: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: %s", res.Status())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("search: decode: %w", err)
	}
	return &r, nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func textQuery(q string) map[string]any {
	return map[string]any{
		"multi_match": map[string]any{
			"query":     q,
			"fields":    []string{"name^2", "description"},
			"fuzziness": "AUTO",
		},
	}
}

func (c *Client) SearchMuseums(ctx context.Context, q string, from, size int) (int64, []models.Museum, error) {
	r, err := c.search(ctx, c.museumIndex, textQuery(q), from, size)
	if err != nil {
		return 0, nil, err
	}
	out := make([]models.Museum, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		var m models.Museum
		if err := json.Unmarshal(hit.Source, &m); err != nil {
			return 0, nil, fmt.Errorf("search: decode museum: %w", err)
		}
		out = append(out, m)
	}
	return r.Hits.Total.Value, out, nil
}

func (c *Client) SearchCategories(ctx context.Context, museumID uint, q string, from, size int) (int64, []models.Category, error) {
	query := map[string]any{
		"bool": map[string]any{
			"must":   textQuery(q),
			"filter": map[string]any{"term": map[string]any{"museumId": museumID}},
		},
	}
	r, err := c.search(ctx, c.categoryIndex, query, from, size)
	if err != nil {
		return 0, nil, err
	}
	out := make([]models.Category, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		var cat models.Category
		if err := json.Unmarshal(hit.Source, &cat); err != nil {
			return 0, nil, fmt.Errorf("search: decode category: %w", err)
		}
		out = append(out, cat)
	}
	return r.Hits.Total.Value, out, nil
}

func (c *Client) index(ctx context.Context, index string, id uint, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("index: encode: %w", err)
	}
	res, err := c.es.Index(index, bytes.NewReader(data),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(strconv.FormatUint(uint64(id), 10)),
	)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index: %s", res.Status())
	}
	return nil
}

func (c *Client) remove(ctx context.Context, index string, id uint) error {
	res, err := c.es.Delete(index, strconv.FormatUint(uint64(id), 10), c.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete: %s", res.Status())
	}
	return nil
}

func (c *Client) IndexMuseum(ctx context.Context, m *models.Museum) error {
	return c.index(ctx, c.museumIndex, m.ID, m)
}

func (c *Client) DeleteMuseum(ctx context.Context, id uint) error {
	return c.remove(ctx, c.museumIndex, id)
}

func (c *Client) IndexCategory(ctx context.Context, cat *models.Category) error {
	return c.index(ctx, c.categoryIndex, cat.ID, cat)
}

func (c *Client) DeleteCategory(ctx context.Context, id uint) error {
	return c.remove(ctx, c.categoryIndex, id)
}
