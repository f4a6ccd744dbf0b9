package cart

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func TestParseCookieCart(t *testing.T) {
	assert.Empty(t, ParseCookieCart(""))
	assert.Empty(t, ParseCookieCart("not-json"))
	assert.Empty(t, ParseCookieCart("null"))

	cc := ParseCookieCart(`{"1":{"quantity":2},"5":{"quantity":1}}`)
	assert.Equal(t, 2, cc["1"].Quantity)
	assert.Equal(t, 1, cc["5"].Quantity)

	escaped := url.QueryEscape(`{"3":{"quantity":4}}`)
	assert.Equal(t, 4, ParseCookieCart(escaped)["3"].Quantity)
}

func TestGuestCartState(t *testing.T) {
	f := newFixture(t)
	cc := CookieCart{
		strconv.FormatInt(f.a.ID, 10): {Quantity: 2},
		strconv.FormatInt(f.b.ID, 10): {Quantity: 1},
		"9999":                        {Quantity: 3},
		"abc":                         {Quantity: 1},
		"42":                          {Quantity: 0},
	}

	s, err := f.cart.GuestCartState(context.Background(), cc)
	require.NoError(t, err)
	assert.Nil(t, s.Order)
	assert.Equal(t, 3, s.ItemCount)
	assert.True(t, s.Total.Equal(decimal.RequireFromString("250.00")))
	assert.True(t, s.Shipping)
	require.Len(t, s.Items, 2)
	assert.Equal(t, f.a.ID, s.Items[0].Product.ID)

	// Nothing is written for guests.
	assert.Empty(t, activeOrders(t, f.store, f.customer.ID))
}

func TestGuestCartState_RejectsOversizedAndAliasedEntries(t *testing.T) {
	f := newFixture(t)
	id := strconv.FormatInt(f.a.ID, 10)
	cc := CookieCart{
		id:       {Quantity: math.MaxInt},
		"0" + id: {Quantity: 2},
		"+" + id: {Quantity: 2},
	}

	s, err := f.cart.GuestCartState(context.Background(), cc)
	require.NoError(t, err)
	assert.Equal(t, 0, s.ItemCount)
	assert.True(t, s.Total.IsZero())

	cc = CookieCart{id: {Quantity: domain.MaxItemQuantity}, "0" + id: {Quantity: 5}}
	s, err = f.cart.GuestCartState(context.Background(), cc)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxItemQuantity, s.ItemCount)
	assert.True(t, s.Total.Equal(decimal.RequireFromString("1000000.00")))
}

func TestGuestCartState_Empty(t *testing.T) {
	f := newFixture(t)
	s, err := f.cart.GuestCartState(context.Background(), CookieCart{})
	require.NoError(t, err)
	assert.Equal(t, 0, s.ItemCount)
	assert.True(t, s.Total.IsZero())
	assert.False(t, s.Shipping)
}
