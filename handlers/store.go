package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

func cartView(s domain.CartSummary) gin.H {
	return gin.H{
		"items":     s.Items,
		"order":     s.Order,
		"cartItems": s.ItemCount,
		"cartTotal": s.Total.StringFixed(domain.CurrencyPlaces),
		"shipping":  s.Shipping,
	}
}

// Store lists the catalog along with the visitor's cart size.
func (h *Handler) Store(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		abortWithError(c, "error listing products", err)
		return
	}
	s, err := h.cartFor(c)
	if err != nil {
		abortWithError(c, "error loading cart", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "cartItems": s.ItemCount})
}

func (h *Handler) Cart(c *gin.Context) {
	s, err := h.cartFor(c)
	if err != nil {
		abortWithError(c, "error loading cart", err)
		return
	}
	c.JSON(http.StatusOK, cartView(s))
}

// Checkout shows the same cart as Cart; shipping tells the page whether to
// ask for an address.
func (h *Handler) Checkout(c *gin.Context) {
	h.Cart(c)
}

func (h *Handler) Learning(c *gin.Context) {
	category := strings.TrimSpace(c.Query("category"))
	l, err := h.catalog.Learning(c.Request.Context(), category)
	if err != nil {
		abortWithError(c, "error loading learning page", err)
		return
	}
	s, err := h.cartFor(c)
	if err != nil {
		abortWithError(c, "error loading cart", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"articles":          l.Articles,
		"categories":        l.Categories,
		"selected_category": category,
		"cartItems":         s.ItemCount,
	})
}
