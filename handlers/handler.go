package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/chat"
	"storefront/internal/checkout"
	"storefront/internal/customers"
	"storefront/internal/domain"
	"storefront/middleware"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"
)

type Handler struct {
	catalog   *catalog.Conf
	cart      *cart.Conf
	customers *customers.Conf
	checkout  *checkout.Finalizer
	chat      *chat.Relay
	validate  *validator.Validate
}

func NewHandler(cat *catalog.Conf, cartConf *cart.Conf, cust *customers.Conf, fin *checkout.Finalizer, relay *chat.Relay) (*Handler, error) {
	if cat == nil || cartConf == nil || cust == nil || fin == nil || relay == nil {
		return nil, fmt.Errorf("handler dependencies must not be nil")
	}
	return &Handler{
		catalog:   cat,
		cart:      cartConf,
		customers: cust,
		checkout:  fin,
		chat:      relay,
		validate:  validator.New(),
	}, nil
}

func API(endpointPrefix string, m *middleware.Mid, h *Handler) *gin.Engine {
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode || mode == gin.TestMode {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", healthCheck)

	v1 := r.Group(endpointPrefix)
	{
		v1.Use(m.Authentication())
		v1.GET("/", h.Store)
		v1.GET("/cart", h.Cart)
		v1.GET("/checkout", h.Checkout)
		v1.POST("/update-item", m.RequireUser(h.UpdateItem))
		v1.POST("/process-order", h.ProcessOrder)
		v1.GET("/profile", m.RequireUser(h.Profile))
		v1.POST("/profile", m.RequireUser(h.UpdateProfile))
		v1.GET("/learning", h.Learning)
		v1.POST("/chatbot", h.Chatbot)
	}

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// cartFor is the signed-in user's active order, or the cookie cart for guests.
func (h *Handler) cartFor(c *gin.Context) (domain.CartSummary, error) {
	ctx := c.Request.Context()
	if user, ok := auth.UserFromContext(ctx); ok {
		customer, err := h.customers.Resolve(ctx, user)
		if err != nil {
			return domain.CartSummary{}, err
		}
		return h.cart.GetCartState(ctx, customer)
	}

	raw, err := c.Cookie(cart.CookieName)
	if err != nil {
		raw = ""
	}
	return h.cart.GuestCartState(ctx, cart.ParseCookieCart(raw))
}

// abortWithError logs err and answers with the status it maps to. Server
// errors get a generic message.
func abortWithError(c *gin.Context, msg string, err error) {
	status := mapErrorToStatus(err)
	slog.Error(msg, slog.String(logkey.TraceID, ctxmanage.GetTraceIdOfRequest(c)),
		slog.Int("Status", status), slog.String(logkey.ERROR, err.Error()))
	if status == http.StatusInternalServerError {
		c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
