package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedidosapp/pedidos/internal/models"
)

func dish(id uuid.UUID, name, price string) models.Dish {
	return models.Dish{ID: id, Name: name, Price: price, Category: models.CategoryPratos}
}

func TestStore_AddItem_MergesByDish(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	userID := uuid.New()
	dishID := uuid.New()

	s.AddItem(userID, dish(dishID, "Feijoada", "10.00"))
	s.AddItem(userID, dish(dishID, "Feijoada", "10.00"))

	lines := s.Lines(userID)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "20.00", s.TotalString(userID))
}

func TestStore_Decrement_FlooredAtOne(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	userID := uuid.New()
	dishID := uuid.New()

	s.AddItem(userID, dish(dishID, "Feijoada", "10.00"))
	s.Decrement(userID, dishID)

	lines := s.Lines(userID)
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)

	// absent dish is a no-op, not an error
	s.Decrement(userID, uuid.New())
	require.Len(t, s.Lines(userID), 1)
}

func TestStore_Remove_Unconditional(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	userID := uuid.New()
	dishID := uuid.New()

	s.AddItem(userID, dish(dishID, "Feijoada", "10.00"))
	s.AddItem(userID, dish(dishID, "Feijoada", "10.00"))
	s.Remove(userID, dishID)

	assert.Empty(t, s.Lines(userID))
	assert.Equal(t, "0.00", s.TotalString(userID))
}

func TestStore_Total_CurrencyStringsAndMalformed(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	userID := uuid.New()

	s.AddItem(userID, dish(uuid.New(), "Feijoada", "R$ 12,50"))
	s.AddItem(userID, dish(uuid.New(), "Suco", "3.25"))
	// malformed price contributes zero, the line is still added
	s.AddItem(userID, dish(uuid.New(), "Broken", "preço"))

	require.Len(t, s.Lines(userID), 3)
	assert.Equal(t, "15.75", s.TotalString(userID))
}

func TestStore_Clear(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	userID := uuid.New()
	other := uuid.New()

	s.AddItem(userID, dish(uuid.New(), "Feijoada", "10.00"))
	s.AddItem(other, dish(uuid.New(), "Suco", "5.00"))
	s.Clear(userID)

	assert.Empty(t, s.Lines(userID))
	assert.Len(t, s.Lines(other), 1)
}

func TestStore_EndToEndScenario(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	userID := uuid.New()
	a := uuid.New()
	b := uuid.New()

	s.AddItem(userID, dish(a, "A", "10.00"))
	s.AddItem(userID, dish(a, "A", "10.00"))

	lines := s.Lines(userID)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "20.00", s.TotalString(userID))

	s.AddItem(userID, dish(b, "B", "5.50"))
	assert.Equal(t, "25.50", s.TotalString(userID))

	s.Decrement(userID, a)
	assert.Equal(t, "15.50", s.TotalString(userID))

	s.Decrement(userID, a)
	assert.Equal(t, "15.50", s.TotalString(userID))

	s.Remove(userID, a)
	assert.Equal(t, "5.50", s.TotalString(userID))
}

func TestStore_LinesIsACopy(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	userID := uuid.New()
	dishID := uuid.New()

	s.AddItem(userID, dish(dishID, "Feijoada", "10.00"))

	lines := s.Lines(userID)
	lines[0].Quantity = 99

	fresh := s.Lines(userID)
	assert.Equal(t, 1, fresh[0].Quantity)
}

func TestStore_Watch(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	userID := uuid.New()
	dishID := uuid.New()

	ch, cancel := s.Watch(userID)

	initial := <-ch
	assert.Empty(t, initial.Lines)
	assert.Equal(t, "0.00", initial.Total)

	s.AddItem(userID, dish(dishID, "Feijoada", "10.00"))
	snap := <-ch
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "10.00", snap.Total)

	// only the newest snapshot is kept when the consumer lags
	s.Increment(userID, dishID)
	s.Increment(userID, dishID)
	snap = <-ch
	assert.Equal(t, 3, snap.Lines[0].Quantity)

	cancel()
	_, open := <-ch
	assert.False(t, open)

	// a mutation after cancel must not reach the closed channel
	s.AddItem(userID, dish(uuid.New(), "Suco", "5.00"))
}

func TestStore_Watch_CancelTwice(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	_, cancel := s.Watch(uuid.New())
	cancel()
	cancel()
}

func TestStore_Watch_CancelReleasesUserEntry(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	userID := uuid.New()

	_, cancelA := s.Watch(userID)
	_, cancelB := s.Watch(userID)

	cancelA()
	s.mu.Lock()
	assert.Len(t, s.watchers[userID], 1)
	s.mu.Unlock()

	cancelB()
	s.mu.Lock()
	_, ok := s.watchers[userID]
	s.mu.Unlock()
	assert.False(t, ok, "user entry must be dropped with its last watcher")
}
