package model

import (
	"time"

	"github.com/google/uuid"
)

// Order is a completed checkout as stored by the persisted backend.
type Order struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	CompanyName string    `json:"company_name"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderItem is a single line of an order with the unit price captured at
// checkout time.
type OrderItem struct {
	ID          uuid.UUID `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	ProductID   string    `json:"product_id"`
	Quantity    int       `json:"quantity"`
	PriceAtTime float64   `json:"price_at_time"`
}

// CheckoutDetails are the buyer fields collected at checkout.
type CheckoutDetails struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
}

// OrderStatusPending is the status assigned to freshly created orders.
const OrderStatusPending = "pending"
