package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/auth"
	"storefront/internal/customers"
)

// activeItems is the item count of the open order in p, if there is one.
func activeItems(p customers.Profile) int {
	for _, o := range p.Orders {
		if o.Order != nil && !o.Order.Complete {
			return o.ItemCount
		}
	}
	return 0
}

func (h *Handler) Profile(c *gin.Context) {
	user, _ := auth.UserFromContext(c.Request.Context())
	p, err := h.customers.Profile(c.Request.Context(), user)
	if err != nil {
		abortWithError(c, "error loading profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": p.Customer, "orders": p.Orders, "cartItems": activeItems(p)})
}

type updateProfileReq struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileReq
	if !h.bind(c, &req) {
		return
	}
	user, _ := auth.UserFromContext(c.Request.Context())
	p, err := h.customers.UpdateProfile(c.Request.Context(), user, req.Name, req.Email)
	if err != nil {
		abortWithError(c, "error updating profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"customer":  p.Customer,
		"orders":    p.Orders,
		"cartItems": activeItems(p),
		"message":   "Profile updated successfully!",
	})
}
