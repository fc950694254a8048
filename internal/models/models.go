package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Dish categories shown in the menu.
const (
	CategoryPratos  = "Pratos"
	CategoryBebidas = "Bebidas"
)

// Dish is a catalog entry. Price is kept as text because records written by
// older tooling carry locale-formatted values; it is normalized on write and
// parsed through internal/money on read.
type Dish struct {
	ID          uuid.UUID `gorm:"primaryKey"          json:"id"`
	Name        string    `gorm:"not null"            json:"name"`
	Description string    `json:"description"`
	Price       string    `gorm:"not null"            json:"price"`
	Category    string    `gorm:"index;not null"      json:"category"`
	ImageURL    string    `gorm:"not null"            json:"image_url"`
}

func (d *Dish) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (Dish) TableName() string {
	return "dishes"
}

// Order is append-only: after creation the only field ever updated is
// Status. Items, total and the user columns are snapshots taken at checkout
// and never follow later catalog or profile edits.
type Order struct {
	ID             uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	UserID         uuid.UUID       `gorm:"index;not null"              json:"user_id"`
	UserName       string          `json:"user_name"`
	UserPhoto      string          `json:"user_photo"`
	Items          []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	Total          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	PaymentMethod  string          `gorm:"not null"                    json:"payment_method"`
	DeliveryMethod string          `gorm:"not null"                    json:"delivery_method"`
	Address        string          `gorm:"not null"                    json:"address"`
	Phone          string          `gorm:"not null"                    json:"phone"`
	Message        string          `json:"message"`
	Status         string          `gorm:"index;not null"              json:"status"`
	CreatedAt      time.Time       `gorm:"index;not null"              json:"created_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is one cart line frozen into an order. Name and unit price are
// copied from the dish at submission time.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	OrderID   uuid.UUID       `gorm:"index;not null"              json:"order_id"`
	DishID    uuid.UUID       `gorm:"not null"                    json:"dish_id"`
	Name      string          `gorm:"not null"                    json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity  int             `gorm:"not null;check:quantity>0"   json:"quantity"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (OrderItem) TableName() string {
	return "order_items"
}

type User struct {
	ID             uuid.UUID `gorm:"primaryKey"      json:"id"`
	Email          string    `gorm:"unique;not null" json:"email"`
	PasswordHash   string    `gorm:"not null"        json:"-"`
	FullName       string    `gorm:"not null"        json:"full_name"`
	CPF            string    `gorm:"not null"        json:"cpf"`
	IsEmployee     bool      `gorm:"default:false"   json:"is_employee"`
	ProfilePicture string    `json:"profile_picture"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type RefreshToken struct {
	ID        uuid.UUID `gorm:"primaryKey"      json:"id"`
	Token     string    `gorm:"unique;not null" json:"token"`
	UserID    uuid.UUID `gorm:"index;not null"  json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"        json:"expires_at"`
	Revoked   bool      `gorm:"default:false"   json:"revoked"`
}

func (r *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
