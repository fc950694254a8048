package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pedidosapp/pedidos/internal/events"
	"github.com/pedidosapp/pedidos/internal/logging"
	"github.com/pedidosapp/pedidos/internal/models"
	"github.com/pedidosapp/pedidos/internal/money"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
)

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// Searcher is satisfied by ESIndex. When nil the service falls back to a
// plain name filter in the database.
type Searcher interface {
	IndexDish(ctx context.Context, d models.Dish) error
	DeleteDish(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Dish, error)
}

type Service struct {
	Repo     *GormRepo
	Search   Searcher
	Producer Publisher
}

type CreateDishRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
}

type PatchDishRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	Category    *string `json:"category"`
	ImageURL    *string `json:"image_url"`
}

func validCategory(c string) bool {
	return c == models.CategoryPratos || c == models.CategoryBebidas
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Dish, error) {
	return s.Repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, category string) ([]models.Dish, error) {
	if category != "" && !validCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, category)
	}
	return s.Repo.List(ctx, category)
}

// CreateDish validates a new catalog entry. A record without a resolvable
// image URL is incomplete and rejected; price input may be locale-formatted
// and is stored normalized.
func (s *Service) CreateDish(ctx context.Context, req CreateDishRequest) (*models.Dish, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if !validCategory(req.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, req.Category)
	}
	if req.ImageURL == "" {
		return nil, fmt.Errorf("%w: image required", ErrValidation)
	}

	price, err := money.Parse(req.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}

	dish := &models.Dish{
		Name:        req.Name,
		Description: req.Description,
		Price:       money.Format(price),
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	}
	if err := s.Repo.Create(ctx, dish); err != nil {
		return nil, err
	}

	s.index(ctx, *dish)
	s.publish(ctx, dish.ID, map[string]any{"type": "dish_created", "dish_id": dish.ID, "name": dish.Name})
	return dish, nil
}

func (s *Service) PatchDish(ctx context.Context, id uuid.UUID, req PatchDishRequest) (*models.Dish, error) {
	dish, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: name required", ErrValidation)
		}
		dish.Name = *req.Name
	}
	if req.Description != nil {
		dish.Description = *req.Description
	}
	if req.Category != nil {
		if !validCategory(*req.Category) {
			return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, *req.Category)
		}
		dish.Category = *req.Category
	}
	if req.ImageURL != nil {
		if *req.ImageURL == "" {
			return nil, fmt.Errorf("%w: image required", ErrValidation)
		}
		dish.ImageURL = *req.ImageURL
	}
	if req.Price != nil {
		price, err := money.Parse(*req.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
		dish.Price = money.Format(price)
	}

	if err := s.Repo.Save(ctx, dish); err != nil {
		return nil, err
	}

	s.index(ctx, *dish)
	s.publish(ctx, dish.ID, map[string]any{"type": "dish_updated", "dish_id": dish.ID, "name": dish.Name})
	return dish, nil
}

// DeleteDish removes the entry unconditionally. Orders keep their own item
// snapshots, so placed orders are unaffected.
func (s *Service) DeleteDish(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.Search != nil {
		if err := s.Search.DeleteDish(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("dish_index_delete_failed", "dish_id", id, "error", err)
		}
	}
	s.publish(ctx, id, map[string]any{"type": "dish_deleted", "dish_id": id})
	return nil
}

// SearchDishes answers the menu search box via the search index, falling
// back to a database name filter when no index is configured.
func (s *Service) SearchDishes(ctx context.Context, query string, from, size int) ([]models.Dish, error) {
	q := normalizeQuery(query)
	if q == "" {
		return nil, fmt.Errorf("%w: query required", ErrValidation)
	}

	if s.Search == nil {
		return s.Repo.SearchByName(ctx, q)
	}

	_, dishes, err := s.Search.Search(ctx, q, from, size)
	return dishes, err
}

func (s *Service) index(ctx context.Context, d models.Dish) {
	if s.Search == nil {
		return
	}
	if err := s.Search.IndexDish(ctx, d); err != nil {
		logging.FromContext(ctx).Warn("dish_index_failed", "dish_id", d.ID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, key uuid.UUID, event map[string]any) {
	if s.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, events.TopicDishEvents, key.String(), event); err != nil {
		logging.FromContext(ctx).Warn("dish_event_publish_failed", "error", err)
	}
}
