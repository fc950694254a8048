// Package cart holds the pre-checkout working set for every signed-in user.
// Carts live in process memory only; they become durable the moment checkout
// turns them into an order, never before.
package cart

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pedidosapp/pedidos/internal/models"
	"github.com/pedidosapp/pedidos/internal/money"
)

// Line is one dish inside a cart. Lines are unique per dish: adding a dish
// that is already present bumps its quantity instead of appending.
type Line struct {
	DishID    uuid.UUID       `json:"dish_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Snapshot is what watchers receive after every mutation.
type Snapshot struct {
	Lines []Line `json:"lines"`
	Total string `json:"total"`
}

// Store is the single source of truth for what each user intends to buy
// right now. All methods are safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	logger   *slog.Logger
	carts    map[uuid.UUID][]Line
	watchers map[uuid.UUID]map[int]chan Snapshot
	nextID   int
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger:   logger,
		carts:    make(map[uuid.UUID][]Line),
		watchers: make(map[uuid.UUID]map[int]chan Snapshot),
	}
}

// AddItem puts a dish into the user's cart. A dish already in the cart gets
// its quantity incremented by one. A price that fails to parse contributes
// zero and is logged, it never blocks the add.
func (s *Store) AddItem(userID uuid.UUID, dish models.Dish) {
	price, err := money.Parse(dish.Price)
	if err != nil {
		s.logger.Warn("cart_price_malformed", "dish_id", dish.ID, "price", dish.Price, "error", err)
		price = decimal.Zero
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].DishID == dish.ID {
			lines[i].Quantity++
			s.notifyLocked(userID)
			return
		}
	}
	s.carts[userID] = append(lines, Line{
		DishID:    dish.ID,
		Name:      dish.Name,
		UnitPrice: price,
		Quantity:  1,
	})
	s.notifyLocked(userID)
}

// Increment bumps the quantity of a line. Unknown dish ids are a no-op.
func (s *Store) Increment(userID, dishID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].DishID == dishID {
			lines[i].Quantity++
			s.notifyLocked(userID)
			return
		}
	}
}

// Decrement lowers the quantity of a line, floored at one. A line at
// quantity one stays in the cart; removing it takes an explicit Remove call,
// so a stray tap can never delete a line.
func (s *Store) Decrement(userID, dishID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].DishID == dishID {
			if lines[i].Quantity > 1 {
				lines[i].Quantity--
				s.notifyLocked(userID)
			}
			return
		}
	}
}

// Remove deletes a line unconditionally, whatever its quantity.
func (s *Store) Remove(userID, dishID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].DishID == dishID {
			s.carts[userID] = append(lines[:i], lines[i+1:]...)
			s.notifyLocked(userID)
			return
		}
	}
}

// Lines returns a copy of the user's cart. Mutating the result never
// touches the store.
func (s *Store) Lines(userID uuid.UUID) []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLinesLocked(userID)
}

// Total is the running sum over all lines, rounded to two decimal places.
func (s *Store) Total(userID uuid.UUID) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked(userID)
}

// TotalString renders the total with exactly two decimal places.
func (s *Store) TotalString(userID uuid.UUID) string {
	return money.Format(s.Total(userID))
}

// Clear empties the cart. Checkout calls it exactly once, after the order
// repository confirmed persistence.
func (s *Store) Clear(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	s.notifyLocked(userID)
}

// Watch subscribes to the user's cart. The channel carries the latest
// snapshot after every mutation, newest wins when the consumer lags. The
// returned cancel func closes the channel; no snapshot is delivered after
// cancel returns.
func (s *Store) Watch(userID uuid.UUID) (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	ch := make(chan Snapshot, 1)
	if s.watchers[userID] == nil {
		s.watchers[userID] = make(map[int]chan Snapshot)
	}
	s.watchers[userID][id] = ch
	ch <- s.snapshotLocked(userID)

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if w, ok := s.watchers[userID][id]; ok {
			delete(s.watchers[userID], id)
			close(w)
		}
		if len(s.watchers[userID]) == 0 {
			delete(s.watchers, userID)
		}
	}
	return ch, cancel
}

func (s *Store) copyLinesLocked(userID uuid.UUID) []Line {
	lines := s.carts[userID]
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

func (s *Store) totalLocked(userID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.carts[userID] {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total.Round(2)
}

func (s *Store) snapshotLocked(userID uuid.UUID) Snapshot {
	return Snapshot{
		Lines: s.copyLinesLocked(userID),
		Total: money.Format(s.totalLocked(userID)),
	}
}

func (s *Store) notifyLocked(userID uuid.UUID) {
	if len(s.watchers[userID]) == 0 {
		return
	}
	snap := s.snapshotLocked(userID)
	for _, ch := range s.watchers[userID] {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
