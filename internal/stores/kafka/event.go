package kafka

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountCreatedEvent is published by the user service when an account is
// registered.
type AccountCreatedEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"` // Timestamp of creation
	UpdatedAt time.Time `json:"updated_at"` // Timestamp of last update
}

// OrderCompletedEvent is published once an order has been finalized.
type OrderCompletedEvent struct {
	OrderID       int64                `json:"order_id"`
	CustomerID    int64                `json:"customer_id"`
	TransactionID string               `json:"transaction_id"`
	Total         decimal.Decimal      `json:"total"`
	Guest         bool                 `json:"guest"`
	Items         []OrderCompletedItem `json:"items"`
	CompletedAt   time.Time            `json:"completed_at"`
}

type OrderCompletedItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}
