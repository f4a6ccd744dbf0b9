package repository

import (
	"context"

	"storefront/internal/domain"
)

// Repository runs units of work against the store. Everything fn does through
// tx is committed when fn returns nil and discarded otherwise.
type Repository interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of storage operations available inside a unit of work.
// Lookup-or-create operations are single atomic conditional inserts.
type Tx interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)

	// UpsertCustomer returns the customer linked to user, creating it from the
	// user's name and email on first sight.
	UpsertCustomer(ctx context.Context, user domain.User) (domain.Customer, error)
	// CreateGuestCustomer always creates a customer with no user link.
	CreateGuestCustomer(ctx context.Context, name, email string) (domain.Customer, error)
	UpdateCustomer(ctx context.Context, c domain.Customer) error

	// ActiveOrder returns the customer's incomplete order, creating it if absent.
	ActiveOrder(ctx context.Context, customerID int64) (domain.Order, error)
	// SaveOrder persists order.Complete and order.TransactionID. Complete never
	// reverts to false and an already stamped transaction id is kept.
	SaveOrder(ctx context.Context, order domain.Order) error
	CustomerOrders(ctx context.Context, customerID int64) ([]domain.Order, error)

	// AdjustItem adds delta to the (order, product) line item, creating it at
	// zero first, and deletes it when the result is not positive. It returns the
	// quantity left in the cart.
	AdjustItem(ctx context.Context, orderID, productID int64, delta int) (int, error)
	OrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error)

	// CreateShippingAddress inserts the address unless the order already has
	// one; created reports whether a row was written.
	CreateShippingAddress(ctx context.Context, addr domain.ShippingAddress) (created bool, err error)
	ShippingAddresses(ctx context.Context, orderID int64) ([]domain.ShippingAddress, error)

	ListArticles(ctx context.Context, category string) ([]domain.Article, error)
	ArticleCategories(ctx context.Context) ([]string, error)
}
