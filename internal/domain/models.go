package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of decimal places prices and totals are kept at.
const CurrencyPlaces = 2

// MaxItemQuantity caps the quantity of one product in one order.
const MaxItemQuantity = 10000

// User is an authenticated account as presented by the identity layer.
type User struct {
	ID    string
	Name  string
	Email string
}

// Customer is a buyer. UserID is nil for guest customers.
type Customer struct {
	ID     int64   `json:"id"`
	UserID *string `json:"user_id,omitempty"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
}

type Product struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Digital bool            `json:"digital"`
	Image   string          `json:"image"`
}

// Order is either the customer's active cart (Complete == false) or a
// finalized purchase. Complete only ever goes false -> true and
// TransactionID is written once.
type Order struct {
	ID            int64     `json:"id"`
	CustomerID    int64     `json:"customer_id"`
	Complete      bool      `json:"complete"`
	TransactionID *string   `json:"transaction_id"`
	DateOrdered   time.Time `json:"date_ordered"`
}

// OrderItem is a line item; persisted quantities are always positive.
type OrderItem struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Product   Product   `json:"product"`
	Quantity  int       `json:"quantity"`
	DateAdded time.Time `json:"date_added"`
}

// Total is quantity × unit price.
func (i OrderItem) Total() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type ShippingAddress struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	OrderID    int64     `json:"order_id"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	Zipcode    string    `json:"zipcode"`
	DateAdded  time.Time `json:"date_added"`
}

// Article is an entry on the learning page.
type Article struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Summary   string    `json:"summary"`
	Body      string    `json:"body"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

// CartSummary is an order together with its line items and the aggregates
// derived from them. Order is nil for carts that only live in a guest cookie.
type CartSummary struct {
	Order     *Order          `json:"order"`
	Items     []OrderItem     `json:"items"`
	ItemCount int             `json:"cart_items"`
	Total     decimal.Decimal `json:"cart_total"`
	Shipping  bool            `json:"shipping"`
}

// Summarize computes the aggregates for items at call time.
func Summarize(order *Order, items []OrderItem) CartSummary {
	if items == nil {
		items = []OrderItem{}
	}
	return CartSummary{
		Order:     order,
		Items:     items,
		ItemCount: ItemCount(items),
		Total:     Total(items),
		Shipping:  RequiresShipping(items),
	}
}

// Total sums quantity × price over items, rounded to currency precision.
func Total(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Total())
	}
	return total.Round(CurrencyPlaces)
}

func ItemCount(items []OrderItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// RequiresShipping is true when any item is a physical product.
func RequiresShipping(items []OrderItem) bool {
	for _, it := range items {
		if !it.Product.Digital {
			return true
		}
	}
	return false
}
