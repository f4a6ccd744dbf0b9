package cart

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionAdd, ActionRemove:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", domain.ErrValidation, s)
	}
}

func (a Action) delta() int {
	if a == ActionRemove {
		return -1
	}
	return 1
}

type Conf struct {
	repo repository.Repository
}

func NewConf(repo repository.Repository) (*Conf, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is nil")
	}
	return &Conf{repo: repo}, nil
}

// GetCartState returns the customer's active order, creating it when absent,
// with its line items and aggregates computed now.
func (c *Conf) GetCartState(ctx context.Context, customer domain.Customer) (domain.CartSummary, error) {
	var summary domain.CartSummary
	err := c.repo.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		summary, err = Load(ctx, tx, customer.ID)
		return err
	})
	if err != nil {
		return domain.CartSummary{}, err
	}
	return summary, nil
}

// Load reads the active cart of a customer inside an existing unit of work.
func Load(ctx context.Context, tx repository.Tx, customerID int64) (domain.CartSummary, error) {
	order, err := tx.ActiveOrder(ctx, customerID)
	if err != nil {
		return domain.CartSummary{}, err
	}
	return LoadOrder(ctx, tx, order)
}

// LoadOrder summarises an already fetched order.
func LoadOrder(ctx context.Context, tx repository.Tx, order domain.Order) (domain.CartSummary, error) {
	items, err := tx.OrderItems(ctx, order.ID)
	if err != nil {
		return domain.CartSummary{}, err
	}
	return domain.Summarize(&order, items), nil
}

// UpdateItem applies one add or remove to the customer's cart and returns the
// quantity of that product left in it. Each call is a ±1 delta, so retries are
// not idempotent.
func (c *Conf) UpdateItem(ctx context.Context, customer domain.Customer, productID int64, action Action) (int, error) {
	if _, err := ParseAction(string(action)); err != nil {
		return 0, err
	}

	var quantity int
	err := c.repo.WithTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetProduct(ctx, productID); err != nil {
			return err
		}
		order, err := tx.ActiveOrder(ctx, customer.ID)
		if err != nil {
			return err
		}
		quantity, err = tx.AdjustItem(ctx, order.ID, productID, action.delta())
		return err
	})
	if err != nil {
		return 0, err
	}
	return quantity, nil
}
