package order

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pedidosapp/pedidos/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(&GormRepo{DB: initTestDB(t)}, nil)
}

func testOrder(userID uuid.UUID) *models.Order {
	return &models.Order{
		UserID:         userID,
		UserName:       "Maria",
		PaymentMethod:  "Pix",
		DeliveryMethod: "retirar",
		Address:        "Retirada no Estabelecimento",
		Phone:          "11987654321",
		Items: []models.OrderItem{
			{DishID: uuid.New(), Name: "Feijoada", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
			{DishID: uuid.New(), Name: "Suco", UnitPrice: decimal.RequireFromString("5.50"), Quantity: 1},
		},
	}
}

func TestService_Create(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	o := testOrder(userID)
	require.NoError(t, svc.Create(ctx, o))

	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPendente, got.Status)
	assert.Equal(t, "25.50", got.Total.StringFixed(2))
	assert.Len(t, got.Items, 2)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestService_Create_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		order *models.Order
	}{
		{name: "no items", order: &models.Order{UserID: uuid.New()}},
		{name: "no user", order: &models.Order{Items: []models.OrderItem{{Quantity: 1}}}},
		{
			name: "zero quantity",
			order: &models.Order{
				UserID: uuid.New(),
				Items:  []models.OrderItem{{DishID: uuid.New(), Quantity: 0}},
			},
		},
		{
			name: "negative price",
			order: &models.Order{
				UserID: uuid.New(),
				Items:  []models.OrderItem{{DishID: uuid.New(), UnitPrice: decimal.RequireFromString("-1"), Quantity: 1}},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := svc.Create(ctx, tt.order)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestService_ListByUser_NewestFirst(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	first := testOrder(userID)
	require.NoError(t, svc.Create(ctx, first))
	time.Sleep(10 * time.Millisecond)
	second := testOrder(userID)
	require.NoError(t, svc.Create(ctx, second))

	// another user's order must not show up
	require.NoError(t, svc.Create(ctx, testOrder(uuid.New())))

	orders, err := svc.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
}

func TestService_UpdateStatus_StaffIsPermissive(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	staffID := uuid.New()

	o := testOrder(uuid.New())
	require.NoError(t, svc.Create(ctx, o))

	// any status from any status, including backwards
	for _, status := range []string{StatusEntregue, StatusPendente, StatusCancelado, StatusPronto} {
		require.NoError(t, svc.UpdateStatus(ctx, o.ID, status, staffID, true))
		got, err := svc.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}
}

func TestService_UpdateStatus_UnknownStatus(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	err := svc.UpdateStatus(context.Background(), uuid.New(), "Enviado", uuid.New(), true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_UpdateStatus_SelfCancel(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	o := testOrder(userID)
	require.NoError(t, svc.Create(ctx, o))

	// owner cancels while Pendente
	require.NoError(t, svc.UpdateStatus(ctx, o.ID, StatusCancelado, userID, false))
	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelado, got.Status)
}

func TestService_UpdateStatus_CustomerRestrictions(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	o := testOrder(userID)
	require.NoError(t, svc.Create(ctx, o))

	// customers cannot set anything but Cancelado
	err := svc.UpdateStatus(ctx, o.ID, StatusPronto, userID, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)

	// a stranger cannot cancel someone else's order
	err = svc.UpdateStatus(ctx, o.ID, StatusCancelado, uuid.New(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)

	// once the order moved past Pendente, self-cancel is rejected
	require.NoError(t, svc.UpdateStatus(ctx, o.ID, StatusPronto, uuid.New(), true))
	err = svc.UpdateStatus(ctx, o.ID, StatusCancelado, userID, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestService_UpdateStatus_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	err := svc.UpdateStatus(context.Background(), uuid.New(), StatusPronto, uuid.New(), true)
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestService_Subscribe(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	sub, err := svc.Subscribe(ctx, Filter{UserID: &userID})
	require.NoError(t, err)
	defer sub.Close()

	initial := <-sub.Orders()
	assert.Empty(t, initial)

	o := testOrder(userID)
	require.NoError(t, svc.Create(ctx, o))

	snapshot := <-sub.Orders()
	require.Len(t, snapshot, 1)
	assert.Equal(t, o.ID, snapshot[0].ID)

	// other users' orders do not reach a filtered subscription content-wise
	require.NoError(t, svc.Create(ctx, testOrder(uuid.New())))
	snapshot = <-sub.Orders()
	require.Len(t, snapshot, 1)
}

func TestService_Subscribe_AllOrders(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, Filter{})
	require.NoError(t, err)
	defer sub.Close()

	<-sub.Orders()

	require.NoError(t, svc.Create(ctx, testOrder(uuid.New())))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, svc.Create(ctx, testOrder(uuid.New())))

	snapshot := <-sub.Orders()
	require.Len(t, snapshot, 2)
	assert.True(t, !snapshot[0].CreatedAt.Before(snapshot[1].CreatedAt))
}

func TestService_Subscribe_CloseStopsDelivery(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, Filter{})
	require.NoError(t, err)

	<-sub.Orders()
	sub.Close()

	_, open := <-sub.Orders()
	assert.False(t, open)

	// mutations after Close must not panic on the closed channel
	require.NoError(t, svc.Create(ctx, testOrder(uuid.New())))

	sub.Close() // idempotent
}
