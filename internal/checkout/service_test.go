package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pedidosapp/pedidos/internal/cart"
	"github.com/pedidosapp/pedidos/internal/models"
	"github.com/pedidosapp/pedidos/internal/order"
)

func newOrderService(t *testing.T) *order.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return order.NewService(&order.GormRepo{DB: db}, nil)
}

func validRequest() Request {
	return Request{
		PaymentMethod:  PaymentPix,
		DeliveryMethod: DeliveryRetirar,
		Phone:          "11987654321",
	}
}

func deliveryRequest() Request {
	return Request{
		PaymentMethod:  PaymentCartao,
		DeliveryMethod: DeliveryEntrega,
		Street:         "Praça da Sé",
		Number:         "100",
		CEP:            "01001-000",
		Complement:     "fundos",
		Phone:          "11 91234-5678",
	}
}

func TestService_Validate_Phone(t *testing.T) {
	t.Parallel()

	svc := &Service{}

	tests := []struct {
		name  string
		phone string
		valid bool
	}{
		{name: "valid", phone: "11987654321", valid: true},
		{name: "valid formatted", phone: "11 98765-4321", valid: true},
		{name: "too short", phone: "1234567", valid: false},
		{name: "landline shape", phone: "11887654321", valid: false},
		{name: "area code with zero", phone: "01987654321", valid: false},
		{name: "empty", phone: "", valid: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := validRequest()
			req.Phone = tt.phone
			err := svc.Validate(req)
			if tt.valid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
			}
		})
	}
}

func TestService_Validate_RequiredFields(t *testing.T) {
	t.Parallel()

	svc := &Service{}

	// pickup orders need no address even with empty street/number/cep
	require.NoError(t, svc.Validate(validRequest()))

	// delivery orders require street, number and cep
	for _, mutate := range []func(*Request){
		func(r *Request) { r.Street = "" },
		func(r *Request) { r.Number = "" },
		func(r *Request) { r.CEP = "" },
	} {
		req := deliveryRequest()
		mutate(&req)
		err := svc.Validate(req)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
	}
	require.NoError(t, svc.Validate(deliveryRequest()))

	// both method choices are mandatory
	req := validRequest()
	req.PaymentMethod = ""
	assert.ErrorIs(t, svc.Validate(req), ErrValidation)

	req = validRequest()
	req.PaymentMethod = "Cheque"
	assert.ErrorIs(t, svc.Validate(req), ErrValidation)

	req = validRequest()
	req.DeliveryMethod = ""
	assert.ErrorIs(t, svc.Validate(req), ErrValidation)
}

func TestService_Confirm_CreatesOrderAndClearsCart(t *testing.T) {
	t.Parallel()

	store := cart.NewStore(nil)
	orders := newOrderService(t)
	svc := &Service{Cart: store, Orders: orders}

	customer := Customer{ID: uuid.New(), Name: "Maria", Photo: "pic.jpg"}
	dishID := uuid.New()
	store.AddItem(customer.ID, models.Dish{ID: dishID, Name: "Feijoada", Price: "10.00"})
	store.AddItem(customer.ID, models.Dish{ID: dishID, Name: "Feijoada", Price: "10.00"})
	store.AddItem(customer.ID, models.Dish{ID: uuid.New(), Name: "Suco", Price: "5.50"})

	o, err := svc.Confirm(context.Background(), customer, validRequest())
	require.NoError(t, err)

	assert.Equal(t, order.StatusPendente, o.Status)
	assert.Equal(t, "25.50", o.Total.StringFixed(2))
	assert.Equal(t, PickupAddress, o.Address)
	assert.Equal(t, "Maria", o.UserName)
	assert.Equal(t, "11987654321", o.Phone)
	assert.Len(t, o.Items, 2)

	// cart is cleared exactly once, after persistence
	assert.Empty(t, store.Lines(customer.ID))
}

func TestService_Confirm_DeliveryAddressComposition(t *testing.T) {
	t.Parallel()

	store := cart.NewStore(nil)
	svc := &Service{Cart: store, Orders: newOrderService(t)}

	customer := Customer{ID: uuid.New(), Name: "Maria"}
	store.AddItem(customer.ID, models.Dish{ID: uuid.New(), Name: "Feijoada", Price: "10.00"})

	o, err := svc.Confirm(context.Background(), customer, deliveryRequest())
	require.NoError(t, err)
	assert.Equal(t, "Praça da Sé, 100, CEP: 01001-000, Complemento: fundos", o.Address)
	assert.Equal(t, "11912345678", o.Phone)

	// without complement the suffix is omitted
	store.AddItem(customer.ID, models.Dish{ID: uuid.New(), Name: "Suco", Price: "5.00"})
	req := deliveryRequest()
	req.Complement = ""
	o, err = svc.Confirm(context.Background(), customer, req)
	require.NoError(t, err)
	assert.Equal(t, "Praça da Sé, 100, CEP: 01001-000", o.Address)
}

func TestService_Confirm_EmptyCart(t *testing.T) {
	t.Parallel()

	svc := &Service{Cart: cart.NewStore(nil), Orders: newOrderService(t)}

	_, err := svc.Confirm(context.Background(), Customer{ID: uuid.New()}, validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

type failingCreator struct{}

func (failingCreator) Create(ctx context.Context, o *models.Order) error {
	return errors.New("repository down")
}

func TestService_Confirm_FailureLeavesCartUntouched(t *testing.T) {
	t.Parallel()

	store := cart.NewStore(nil)
	svc := &Service{Cart: store, Orders: failingCreator{}}

	customer := Customer{ID: uuid.New()}
	store.AddItem(customer.ID, models.Dish{ID: uuid.New(), Name: "Feijoada", Price: "10.00"})

	_, err := svc.Confirm(context.Background(), customer, validRequest())
	require.Error(t, err)
	assert.Len(t, store.Lines(customer.ID), 1)
}

func TestService_Confirm_OrderSnapshotIsImmutable(t *testing.T) {
	t.Parallel()

	store := cart.NewStore(nil)
	orders := newOrderService(t)
	svc := &Service{Cart: store, Orders: orders}

	customer := Customer{ID: uuid.New(), Name: "Maria"}
	dishID := uuid.New()
	store.AddItem(customer.ID, models.Dish{ID: dishID, Name: "Feijoada", Price: "10.00"})

	o, err := svc.Confirm(context.Background(), customer, validRequest())
	require.NoError(t, err)

	// refill and mutate the cart after the order exists
	store.AddItem(customer.ID, models.Dish{ID: dishID, Name: "Feijoada", Price: "99.00"})
	store.Increment(customer.ID, dishID)

	persisted, err := orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, persisted.Items, 1)
	assert.Equal(t, 1, persisted.Items[0].Quantity)
	assert.Equal(t, "10.00", persisted.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "10.00", persisted.Total.StringFixed(2))
}
