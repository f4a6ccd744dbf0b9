package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/repository"
)

func TestConf_ListProducts(t *testing.T) {
	store := repository.NewMemoryStore()
	c, err := NewConf(store)
	require.NoError(t, err)

	products, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)

	SeedDemo(store)
	products, err = c.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 4)
}

func TestConf_Learning(t *testing.T) {
	store := repository.NewMemoryStore()
	SeedDemo(store)
	c, err := NewConf(store)
	require.NoError(t, err)

	all, err := c.Learning(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all.Articles, 3)
	assert.Equal(t, []string{"irrigation", "soil"}, all.Categories)

	soil, err := c.Learning(context.Background(), "soil")
	require.NoError(t, err)
	assert.Len(t, soil.Articles, 2)
	for _, a := range soil.Articles {
		assert.Equal(t, "soil", a.Category)
	}

	none, err := c.Learning(context.Background(), "poultry")
	require.NoError(t, err)
	assert.Empty(t, none.Articles)
	assert.Len(t, none.Categories, 2)
}

func TestNewConf_NilRepository(t *testing.T) {
	_, err := NewConf(nil)
	assert.Error(t, err)
}
