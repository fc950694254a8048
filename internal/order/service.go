package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pedidosapp/pedidos/internal/events"
	"github.com/pedidosapp/pedidos/internal/logging"
	"github.com/pedidosapp/pedidos/internal/models"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrForbidden  = errors.New("forbidden")  // 403
	ErrConflict   = errors.New("conflict")   // 409
)

// Publisher is satisfied by events.Producer. Kept as an interface so the
// service runs without a broker in tests and local setups.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type Service struct {
	Repo     *GormRepo
	Producer Publisher
	feed     *feed
}

func NewService(repo *GormRepo, producer Publisher) *Service {
	return &Service{
		Repo:     repo,
		Producer: producer,
		feed:     newFeed(),
	}
}

// Create persists a new order. Status and creation time are assigned here,
// the total is recomputed from the item snapshot so the stored value always
// matches the stored lines.
func (s *Service) Create(ctx context.Context, o *models.Order) error {
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: items required", ErrValidation)
	}
	if o.UserID == uuid.Nil {
		return fmt.Errorf("%w: user required", ErrValidation)
	}

	total := decimal.Zero
	for i := range o.Items {
		if o.Items[i].Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		if o.Items[i].UnitPrice.IsNegative() {
			return fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
		total = total.Add(o.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(o.Items[i].Quantity))))
	}

	o.Total = total.Round(2)
	o.Status = StatusPendente
	o.CreatedAt = time.Now().UTC()

	if err := s.Repo.Create(ctx, o); err != nil {
		return err
	}

	s.publish(ctx, o.ID, map[string]any{
		"type":     "order_created",
		"order_id": o.ID,
		"user_id":  o.UserID,
		"total":    o.Total,
	})
	s.broadcast(ctx)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.Repo.Get(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.Repo.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.Repo.ListAll(ctx)
}

// UpdateStatus applies a status change. Employees may set any status at any
// time, matching the console's permissive workflow. A customer may only set
// Cancelado on their own order and only while it is still Pendente.
func (s *Service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string, actorID uuid.UUID, employee bool) error {
	if !ValidStatus(status) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	o, err := s.Repo.Get(ctx, orderID)
	if err != nil {
		return err
	}

	if !employee {
		if o.UserID != actorID {
			return fmt.Errorf("%w: not your order", ErrForbidden)
		}
		if status != StatusCancelado {
			return fmt.Errorf("%w: customers may only cancel", ErrForbidden)
		}
		if o.Status != StatusPendente {
			return fmt.Errorf("%w: order is %s", ErrConflict, o.Status)
		}
	}

	if err := s.Repo.UpdateStatus(ctx, orderID, status); err != nil {
		return err
	}

	s.publish(ctx, orderID, map[string]any{
		"type":     "order_status_changed",
		"order_id": orderID,
		"from":     o.Status,
		"to":       status,
	})
	s.broadcast(ctx)
	return nil
}

// Subscribe opens a live query over the filtered order list, createdAt
// descending. The current result set is delivered immediately, every later
// mutation pushes a fresh one until the subscription is closed.
func (s *Service) Subscribe(ctx context.Context, filter Filter) (*Subscription, error) {
	return s.feed.subscribe(filter, func(f Filter) ([]models.Order, error) {
		return s.list(ctx, f)
	})
}

func (s *Service) list(ctx context.Context, filter Filter) ([]models.Order, error) {
	if filter.UserID != nil {
		return s.Repo.ListByUser(ctx, *filter.UserID)
	}
	return s.Repo.ListAll(ctx)
}

func (s *Service) broadcast(ctx context.Context) {
	s.feed.broadcast(func(f Filter) ([]models.Order, error) {
		return s.list(ctx, f)
	})
}

func (s *Service) publish(ctx context.Context, key uuid.UUID, event map[string]any) {
	if s.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, events.TopicOrderEvents, key.String(), event); err != nil {
		logging.FromContext(ctx).Warn("order_event_publish_failed", "error", err)
	}
}
