package customers

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

type Conf struct {
	repo repository.Repository
}

func NewConf(repo repository.Repository) (*Conf, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is nil")
	}
	return &Conf{repo: repo}, nil
}

// Resolve returns the customer linked to user, creating it on first sight.
func (c *Conf) Resolve(ctx context.Context, user domain.User) (domain.Customer, error) {
	if user.ID == "" {
		return domain.Customer{}, domain.ErrUnauthenticated
	}
	var customer domain.Customer
	err := c.repo.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		customer, err = tx.UpsertCustomer(ctx, user)
		return err
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return customer, nil
}

// Profile is a customer with their full order history, newest first.
type Profile struct {
	Customer domain.Customer      `json:"customer"`
	Orders   []domain.CartSummary `json:"orders"`
}

func (c *Conf) Profile(ctx context.Context, user domain.User) (Profile, error) {
	return c.UpdateProfile(ctx, user, "", "")
}

// UpdateProfile changes the customer's name and email. Blank values keep the
// stored ones.
func (c *Conf) UpdateProfile(ctx context.Context, user domain.User, name, email string) (Profile, error) {
	if user.ID == "" {
		return Profile{}, domain.ErrUnauthenticated
	}
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)

	var p Profile
	err := c.repo.WithTx(ctx, func(tx repository.Tx) error {
		customer, err := tx.UpsertCustomer(ctx, user)
		if err != nil {
			return err
		}
		if name != "" || email != "" {
			if name != "" {
				customer.Name = name
			}
			if email != "" {
				customer.Email = email
			}
			if err := tx.UpdateCustomer(ctx, customer); err != nil {
				return err
			}
		}
		p.Customer = customer

		orders, err := tx.CustomerOrders(ctx, customer.ID)
		if err != nil {
			return err
		}
		p.Orders = make([]domain.CartSummary, 0, len(orders))
		for i := range orders {
			items, err := tx.OrderItems(ctx, orders[i].ID)
			if err != nil {
				return err
			}
			p.Orders = append(p.Orders, domain.Summarize(&orders[i], items))
		}
		return nil
	})
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}
