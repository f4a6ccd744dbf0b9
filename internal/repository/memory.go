package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain"
)

// MemoryStore keeps the whole store in process memory. Each WithTx call holds
// the write lock for its full duration and restores a snapshot when fn fails,
// so units of work are serialised and all-or-nothing.
type MemoryStore struct {
	mu    sync.Mutex
	state memState
	now   func() time.Time
}

type itemRow struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	DateAdded time.Time
}

type memState struct {
	nextID    int64
	products  map[int64]domain.Product
	customers map[int64]domain.Customer
	orders    map[int64]domain.Order
	items     map[int64]itemRow
	shipping  map[int64]domain.ShippingAddress
	articles  map[int64]domain.Article
}

func (s memState) clone() memState {
	return memState{
		nextID:    s.nextID,
		products:  maps.Clone(s.products),
		customers: maps.Clone(s.customers),
		orders:    maps.Clone(s.orders),
		items:     maps.Clone(s.items),
		shipping:  maps.Clone(s.shipping),
		articles:  maps.Clone(s.articles),
	}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: memState{
			nextID:    1,
			products:  make(map[int64]domain.Product),
			customers: make(map[int64]domain.Customer),
			orders:    make(map[int64]domain.Order),
			items:     make(map[int64]itemRow),
			shipping:  make(map[int64]domain.ShippingAddress),
			articles:  make(map[int64]domain.Article),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

var _ Repository = (*MemoryStore)(nil)

func (m *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(&memTx{m: m}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

// AddProduct seeds the catalog and returns the product with its id set.
func (m *MemoryStore) AddProduct(p domain.Product) domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.state.id()
	m.state.products[p.ID] = p
	return p
}

// AddArticle seeds the learning page.
func (m *MemoryStore) AddArticle(a domain.Article) domain.Article {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.state.id()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = m.now()
	}
	m.state.articles[a.ID] = a
	return a
}

func (s *memState) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// memTx operates on the store with the lock already held by WithTx.
type memTx struct{ m *MemoryStore }

var _ Tx = (*memTx)(nil)

func (t *memTx) st() *memState { return &t.m.state }

func (t *memTx) ListProducts(ctx context.Context) ([]domain.Product, error) {
	out := slices.Collect(maps.Values(t.st().products))
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	p, ok := t.st().products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (t *memTx) UpsertCustomer(ctx context.Context, user domain.User) (domain.Customer, error) {
	for _, c := range t.st().customers {
		if c.UserID != nil && *c.UserID == user.ID {
			return c, nil
		}
	}
	uid := user.ID
	c := domain.Customer{ID: t.st().id(), UserID: &uid, Name: user.Name, Email: user.Email}
	t.st().customers[c.ID] = c
	return c, nil
}

func (t *memTx) CreateGuestCustomer(ctx context.Context, name, email string) (domain.Customer, error) {
	c := domain.Customer{ID: t.st().id(), Name: name, Email: email}
	t.st().customers[c.ID] = c
	return c, nil
}

func (t *memTx) UpdateCustomer(ctx context.Context, c domain.Customer) error {
	cur, ok := t.st().customers[c.ID]
	if !ok {
		return fmt.Errorf("customer %d: %w", c.ID, domain.ErrNotFound)
	}
	cur.Name, cur.Email = c.Name, c.Email
	t.st().customers[c.ID] = cur
	return nil
}

func (t *memTx) ActiveOrder(ctx context.Context, customerID int64) (domain.Order, error) {
	if _, ok := t.st().customers[customerID]; !ok {
		return domain.Order{}, fmt.Errorf("customer %d: %w", customerID, domain.ErrNotFound)
	}
	for _, o := range t.st().orders {
		if o.CustomerID == customerID && !o.Complete {
			return o, nil
		}
	}
	o := domain.Order{ID: t.st().id(), CustomerID: customerID, DateOrdered: t.m.now()}
	t.st().orders[o.ID] = o
	return o, nil
}

func (t *memTx) SaveOrder(ctx context.Context, order domain.Order) error {
	cur, ok := t.st().orders[order.ID]
	if !ok {
		return fmt.Errorf("order %d: %w", order.ID, domain.ErrNotFound)
	}
	cur.Complete = cur.Complete || order.Complete
	if cur.TransactionID == nil && order.TransactionID != nil {
		id := *order.TransactionID
		cur.TransactionID = &id
	}
	t.st().orders[order.ID] = cur
	return nil
}

func (t *memTx) CustomerOrders(ctx context.Context, customerID int64) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range t.st().orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateOrdered.Equal(out[j].DateOrdered) {
			return out[i].DateOrdered.After(out[j].DateOrdered)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (t *memTx) AdjustItem(ctx context.Context, orderID, productID int64, delta int) (int, error) {
	if delta > domain.MaxItemQuantity || delta < -domain.MaxItemQuantity {
		return 0, fmt.Errorf("%w: quantity change %d out of range", domain.ErrValidation, delta)
	}
	if _, ok := t.st().orders[orderID]; !ok {
		return 0, fmt.Errorf("order %d: %w", orderID, domain.ErrNotFound)
	}
	if _, ok := t.st().products[productID]; !ok {
		return 0, fmt.Errorf("product %d: %w", productID, domain.ErrNotFound)
	}

	var row itemRow
	found := false
	for _, it := range t.st().items {
		if it.OrderID == orderID && it.ProductID == productID {
			row, found = it, true
			break
		}
	}
	if !found {
		row = itemRow{ID: t.st().id(), OrderID: orderID, ProductID: productID, DateAdded: t.m.now()}
	}

	row.Quantity += delta
	if row.Quantity > domain.MaxItemQuantity {
		return 0, fmt.Errorf("%w: product %d quantity %d exceeds %d", domain.ErrValidation, productID, row.Quantity, domain.MaxItemQuantity)
	}
	if row.Quantity <= 0 {
		delete(t.st().items, row.ID)
		return 0, nil
	}
	t.st().items[row.ID] = row
	return row.Quantity, nil
}

func (t *memTx) OrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	var out []domain.OrderItem
	for _, it := range t.st().items {
		if it.OrderID != orderID {
			continue
		}
		out = append(out, domain.OrderItem{
			ID:        it.ID,
			OrderID:   it.OrderID,
			Product:   t.st().products[it.ProductID],
			Quantity:  it.Quantity,
			DateAdded: it.DateAdded,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) CreateShippingAddress(ctx context.Context, addr domain.ShippingAddress) (bool, error) {
	if _, ok := t.st().orders[addr.OrderID]; !ok {
		return false, fmt.Errorf("order %d: %w", addr.OrderID, domain.ErrNotFound)
	}
	for _, a := range t.st().shipping {
		if a.OrderID == addr.OrderID {
			return false, nil
		}
	}
	addr.ID = t.st().id()
	addr.DateAdded = t.m.now()
	t.st().shipping[addr.ID] = addr
	return true, nil
}

func (t *memTx) ShippingAddresses(ctx context.Context, orderID int64) ([]domain.ShippingAddress, error) {
	var out []domain.ShippingAddress
	for _, a := range t.st().shipping {
		if a.OrderID == orderID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) ListArticles(ctx context.Context, category string) ([]domain.Article, error) {
	var out []domain.Article
	for _, a := range t.st().articles {
		if category != "" && a.Category != category {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (t *memTx) ArticleCategories(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, a := range t.st().articles {
		seen[a.Category] = struct{}{}
	}
	out := slices.Collect(maps.Keys(seen))
	sort.Strings(out)
	return out, nil
}
