package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Store{db: db}, nil
}

var _ repository.Repository = (*Store)(nil)

func (s *Store) WithTx(ctx context.Context, fn func(repository.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %v: %w", er, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
}

var _ repository.Tx = (*pgTx)(nil)

func (t *pgTx) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, name, price, digital, image
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Digital, &p.Image); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

func (t *pgTx) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, name, price, digital, image
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.Digital, &p.Image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

// The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
func (t *pgTx) UpsertCustomer(ctx context.Context, user domain.User) (domain.Customer, error) {
	var c domain.Customer
	var userID sql.NullString
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO customers (user_id, name, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, name, email
	`, user.ID, user.Name, user.Email).Scan(&c.ID, &userID, &c.Name, &c.Email)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("failed to upsert customer: %w", err)
	}
	if userID.Valid {
		c.UserID = &userID.String
	}
	return c, nil
}

func (t *pgTx) CreateGuestCustomer(ctx context.Context, name, email string) (domain.Customer, error) {
	c := domain.Customer{Name: name, Email: email}
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO customers (name, email)
		VALUES ($1, $2)
		RETURNING id
	`, name, email).Scan(&c.ID)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("failed to create guest customer: %w", err)
	}
	return c, nil
}

func (t *pgTx) UpdateCustomer(ctx context.Context, c domain.Customer) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE customers
		SET name = $1, email = $2
		WHERE id = $3
	`, c.Name, c.Email, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("customer %d: %w", c.ID, domain.ErrNotFound)
	}
	return nil
}

// ActiveOrder relies on the partial unique index over incomplete orders. The
// upsert also row-locks the order until the transaction ends.
func (t *pgTx) ActiveOrder(ctx context.Context, customerID int64) (domain.Order, error) {
	o, err := scanOrder(t.tx.QueryRowContext(ctx, `
		INSERT INTO orders (customer_id)
		VALUES ($1)
		ON CONFLICT (customer_id) WHERE NOT complete
		DO UPDATE SET customer_id = EXCLUDED.customer_id
		RETURNING id, customer_id, complete, transaction_id, date_ordered
	`, customerID))
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to get or create active order: %w", err)
	}
	return o, nil
}

func (t *pgTx) SaveOrder(ctx context.Context, order domain.Order) error {
	var txID sql.NullString
	if order.TransactionID != nil {
		txID = sql.NullString{String: *order.TransactionID, Valid: true}
	}
	res, err := t.tx.ExecContext(ctx, `
		UPDATE orders
		SET complete = complete OR $2,
		    transaction_id = COALESCE(transaction_id, $3)
		WHERE id = $1
	`, order.ID, order.Complete, txID)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("order %d: %w", order.ID, domain.ErrNotFound)
	}
	return nil
}

func (t *pgTx) CustomerOrders(ctx context.Context, customerID int64) ([]domain.Order, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, customer_id, complete, transaction_id, date_ordered
		FROM orders
		WHERE customer_id = $1
		ORDER BY date_ordered DESC, id DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

func (t *pgTx) AdjustItem(ctx context.Context, orderID, productID int64, delta int) (int, error) {
	if delta > domain.MaxItemQuantity || delta < -domain.MaxItemQuantity {
		return 0, fmt.Errorf("%w: quantity change %d out of range", domain.ErrValidation, delta)
	}
	var itemID int64
	var quantity int
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id, product_id)
		DO UPDATE SET quantity = order_items.quantity + EXCLUDED.quantity
		RETURNING id, quantity
	`, orderID, productID, delta).Scan(&itemID, &quantity)
	if err != nil {
		return 0, fmt.Errorf("failed to adjust order item: %w", err)
	}

	if quantity > domain.MaxItemQuantity {
		return 0, fmt.Errorf("%w: product %d quantity %d exceeds %d", domain.ErrValidation, productID, quantity, domain.MaxItemQuantity)
	}
	if quantity > 0 {
		return quantity, nil
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM order_items WHERE id = $1`, itemID); err != nil {
		return 0, fmt.Errorf("failed to delete order item: %w", err)
	}
	return 0, nil
}

func (t *pgTx) OrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.quantity, oi.date_added,
		       p.id, p.name, p.price, p.digital, p.image
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Quantity, &it.DateAdded,
			&it.Product.ID, &it.Product.Name, &it.Product.Price, &it.Product.Digital, &it.Product.Image); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}
	return items, nil
}

func (t *pgTx) CreateShippingAddress(ctx context.Context, addr domain.ShippingAddress) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO shipping_addresses (customer_id, order_id, address, city, state, zipcode)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_id) DO NOTHING
	`, addr.CustomerID, addr.OrderID, addr.Address, addr.City, addr.State, addr.Zipcode)
	if err != nil {
		return false, fmt.Errorf("failed to create shipping address: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func (t *pgTx) ShippingAddresses(ctx context.Context, orderID int64) ([]domain.ShippingAddress, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, customer_id, order_id, address, city, state, zipcode, date_added
		FROM shipping_addresses
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shipping addresses: %w", err)
	}
	defer rows.Close()

	var out []domain.ShippingAddress
	for rows.Next() {
		var a domain.ShippingAddress
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.OrderID, &a.Address, &a.City, &a.State, &a.Zipcode, &a.DateAdded); err != nil {
			return nil, fmt.Errorf("failed to scan shipping address: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shipping addresses: %w", err)
	}
	return out, nil
}

func (t *pgTx) ListArticles(ctx context.Context, category string) ([]domain.Article, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, title, category, summary, body, image, created_at
		FROM articles
		WHERE $1 = '' OR category = $1
		ORDER BY created_at DESC, id DESC
	`, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var out []domain.Article
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Category, &a.Summary, &a.Body, &a.Image, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating articles: %w", err)
	}
	return out, nil
}

func (t *pgTx) ArticleCategories(ctx context.Context) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT DISTINCT category FROM articles ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to query article categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	var txID sql.NullString
	if err := row.Scan(&o.ID, &o.CustomerID, &o.Complete, &txID, &o.DateOrdered); err != nil {
		return domain.Order{}, err
	}
	if txID.Valid {
		o.TransactionID = &txID.String
	}
	return o, nil
}
