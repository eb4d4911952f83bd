package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order. Only administrators
// move an order past Pending.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ValidOrderStatus reports whether s is one of the known order states.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Address      string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Product struct {
	ID          uuid.UUID
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Category    string
	Stock       int
	SellerID    uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Cart struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CartItem struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine is a cart item joined with the current product snapshot.
// Checkout reads these; the snapshot price is what gets frozen onto
// the order line.
type CartLine struct {
	Item    CartItem
	Product Product
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Item.Quantity)))
}

type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	ShippingAddress string
	ContactPhone    string
	TotalAmount     decimal.Decimal
	Status          OrderStatus
	Items           []OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem records one purchased line. Price is copied from the
// product at checkout time and never follows later catalog changes.
type OrderItem struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	ProductID        uuid.UUID
	ProductName      string
	Price            decimal.Decimal
	PurchaseQuantity int
}

// OrderPlaced is published after a checkout transaction commits.
type OrderPlaced struct {
	OrderID     uuid.UUID       `json:"order_id"`
	UserID      uuid.UUID       `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PlacedAt    time.Time       `json:"placed_at"`
}
