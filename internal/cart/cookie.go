package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// CookieName is the cookie a guest browser keeps its cart in.
const CookieName = "cart"

// CookieCart is the guest cart cookie: product id -> {"quantity": n}.
type CookieCart map[string]CookieItem

type CookieItem struct {
	Quantity int `json:"quantity"`
}

// ParseCookieCart decodes the raw cookie value. A missing or malformed cookie
// is an empty cart.
func ParseCookieCart(raw string) CookieCart {
	if raw == "" {
		return CookieCart{}
	}
	if unescaped, err := url.QueryUnescape(raw); err == nil {
		raw = unescaped
	}
	var cc CookieCart
	if err := json.Unmarshal([]byte(raw), &cc); err != nil || cc == nil {
		return CookieCart{}
	}
	return cc
}

// GuestCartState computes cart aggregates for a visitor without an account.
// Entries for unknown products, non-canonical ids and quantities outside
// 1..MaxItemQuantity are skipped.
// Nothing is persisted.
func (c *Conf) GuestCartState(ctx context.Context, cc CookieCart) (domain.CartSummary, error) {
	ids := make([]int64, 0, len(cc))
	quantities := make(map[int64]int, len(cc))
	for key, item := range cc {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || strconv.FormatInt(id, 10) != key {
			continue
		}
		if item.Quantity <= 0 || item.Quantity > domain.MaxItemQuantity {
			continue
		}
		ids = append(ids, id)
		quantities[id] = item.Quantity
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var items []domain.OrderItem
	err := c.repo.WithTx(ctx, func(tx repository.Tx) error {
		for _, id := range ids {
			p, err := tx.GetProduct(ctx, id)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			items = append(items, domain.OrderItem{Product: p, Quantity: quantities[id]})
		}
		return nil
	})
	if err != nil {
		return domain.CartSummary{}, err
	}
	return domain.Summarize(nil, items), nil
}
