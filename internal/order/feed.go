package order

import (
	"sync"

	"github.com/google/uuid"

	"github.com/pedidosapp/pedidos/internal/models"
)

// Filter selects which orders a subscription sees. A nil UserID means all
// orders (the staff console), otherwise only that user's history.
type Filter struct {
	UserID *uuid.UUID
}

// feed pushes the full ordered result set to every subscriber after each
// order mutation, mimicking a document-store live query. Snapshots arrive
// newest-wins: a slow consumer only ever sees the latest list.
type feed struct {
	mu   sync.Mutex
	subs map[int]*Subscription
	next int
}

func newFeed() *feed {
	return &feed{subs: make(map[int]*Subscription)}
}

type Subscription struct {
	feed   *feed
	id     int
	filter Filter
	ch     chan []models.Order
}

// Orders delivers snapshots sorted by creation time descending. The channel
// is closed by Close.
func (s *Subscription) Orders() <-chan []models.Order {
	return s.ch
}

// Close detaches the subscription. After Close returns no further snapshot
// is delivered.
func (s *Subscription) Close() {
	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()
	if _, ok := s.feed.subs[s.id]; ok {
		delete(s.feed.subs, s.id)
		close(s.ch)
	}
}

// subscribe registers first and queries second, both under the lock. An
// order created concurrently lands either in the initial snapshot or in a
// later broadcast, never between the two.
func (f *feed) subscribe(filter Filter, list func(Filter) ([]models.Order, error)) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub := &Subscription{
		feed:   f,
		id:     f.next,
		filter: filter,
		ch:     make(chan []models.Order, 1),
	}
	f.next++
	f.subs[sub.id] = sub

	initial, err := list(filter)
	if err != nil {
		delete(f.subs, sub.id)
		return nil, err
	}
	sub.ch <- initial
	return sub, nil
}

// broadcast re-runs the query for every live subscription. list is the
// repository lookup for one filter; a failed lookup skips that subscriber.
func (f *feed) broadcast(list func(Filter) ([]models.Order, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sub := range f.subs {
		orders, err := list(sub.filter)
		if err != nil {
			continue
		}
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- orders
	}
}
