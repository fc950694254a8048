// Package checkout gates the hand-off from a cart to an order. Confirmation
// is the only place an order is ever created, and the cart is cleared only
// after the repository confirmed persistence, so a failed submission loses
// nothing.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/pedidosapp/pedidos/internal/cart"
	"github.com/pedidosapp/pedidos/internal/models"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrEmptyCart  = errors.New("cart is empty")
)

// Fixed choice sets, recorded verbatim on the order document.
const (
	PaymentPix      = "Pix"
	PaymentDinheiro = "Dinheiro"
	PaymentCartao   = "Cartão"

	DeliveryEntrega = "entrega"
	DeliveryRetirar = "retirar"

	// recorded as the address of every pickup order
	PickupAddress = "Retirada no Estabelecimento"
)

// Brazilian mobile numbers: two-digit area code, a leading 9, eight digits.
var phonePattern = regexp.MustCompile(`^[1-9]{2}9[0-9]{8}$`)

type Request struct {
	PaymentMethod  string `json:"payment_method"`
	DeliveryMethod string `json:"delivery_method"`
	Street         string `json:"street"`
	Number         string `json:"number"`
	CEP            string `json:"cep"`
	Complement     string `json:"complement"`
	Phone          string `json:"phone"`
	Message        string `json:"message"`
}

// Customer is the profile snapshot denormalized onto the order. Later
// profile edits do not touch placed orders.
type Customer struct {
	ID    uuid.UUID
	Name  string
	Photo string
}

// OrderCreator is the order service seen from checkout.
type OrderCreator interface {
	Create(ctx context.Context, o *models.Order) error
}

type Service struct {
	Cart   *cart.Store
	Orders OrderCreator
}

func validPayment(m string) bool {
	return m == PaymentPix || m == PaymentDinheiro || m == PaymentCartao
}

func validDelivery(m string) bool {
	return m == DeliveryEntrega || m == DeliveryRetirar
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validate runs the first gate: field completeness and format. Street,
// number and CEP are required only for delivery orders; the phone must
// always match the mobile pattern.
func (s *Service) Validate(req Request) error {
	if !validPayment(req.PaymentMethod) {
		return fmt.Errorf("%w: payment method required", ErrValidation)
	}
	if !validDelivery(req.DeliveryMethod) {
		return fmt.Errorf("%w: delivery method required", ErrValidation)
	}
	if req.DeliveryMethod == DeliveryEntrega {
		if req.Street == "" || req.Number == "" || req.CEP == "" {
			return fmt.Errorf("%w: street, number and cep required for delivery", ErrValidation)
		}
	}
	if !phonePattern.MatchString(digits(req.Phone)) {
		return fmt.Errorf("%w: phone must match 11 91234-5678", ErrValidation)
	}
	return nil
}

// Confirm runs the second gate and creates the order from an immutable
// snapshot of the cart. On any error the cart is left untouched.
func (s *Service) Confirm(ctx context.Context, customer Customer, req Request) (*models.Order, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	lines := s.Cart.Lines(customer.ID)
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, ErrEmptyCart)
	}

	items := make([]models.OrderItem, len(lines))
	for i, l := range lines {
		items[i] = models.OrderItem{
			DishID:    l.DishID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		}
	}

	order := &models.Order{
		UserID:         customer.ID,
		UserName:       customer.Name,
		UserPhoto:      customer.Photo,
		Items:          items,
		PaymentMethod:  req.PaymentMethod,
		DeliveryMethod: req.DeliveryMethod,
		Address:        composeAddress(req),
		Phone:          digits(req.Phone),
		Message:        req.Message,
	}

	if err := s.Orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.Cart.Clear(customer.ID)
	return order, nil
}

func composeAddress(req Request) string {
	if req.DeliveryMethod != DeliveryEntrega {
		return PickupAddress
	}
	addr := fmt.Sprintf("%s, %s, CEP: %s", req.Street, req.Number, req.CEP)
	if req.Complement != "" {
		addr += ", Complemento: " + req.Complement
	}
	return addr
}
