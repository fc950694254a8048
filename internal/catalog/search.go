package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/pedidosapp/pedidos/internal/es"
	"github.com/pedidosapp/pedidos/internal/models"
)

// ESIndex mirrors the dish catalog into Elasticsearch so the menu search
// can be fuzzy. Index writes are best-effort, the database stays the source
// of truth.
type ESIndex struct {
	Client *elasticsearch.Client
	Index  string
}

func NewESIndex(client *elasticsearch.Client) *ESIndex {
	return &ESIndex{Client: client, Index: es.DishIndex}
}

func (x *ESIndex) IndexDish(ctx context.Context, d models.Dish) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("index dish: %w", err)
	}

	res, err := x.Client.Index(
		x.Index,
		bytes.NewReader(body),
		x.Client.Index.WithContext(ctx),
		x.Client.Index.WithDocumentID(d.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("index dish: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index dish: %s", res.Status())
	}
	return nil
}

func (x *ESIndex) DeleteDish(ctx context.Context, id uuid.UUID) error {
	res, err := x.Client.Delete(
		x.Index,
		id.String(),
		x.Client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete dish from index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete dish from index: %s", res.Status())
	}
	return nil
}

func (x *ESIndex) Search(ctx context.Context, query string, from, size int) (int64, []models.Dish, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}

	res, err := x.Client.Search(
		x.Client.Search.WithContext(ctx),
		x.Client.Search.WithIndex(x.Index),
		x.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Dish `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	dishes := make([]models.Dish, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		dishes[i] = hit.Source
	}
	return r.Hits.Total.Value, dishes, nil
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
