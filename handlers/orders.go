package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"
)

type updateItemReq struct {
	ProductID productRef `json:"productId" validate:"gt=0"`
	Action    string     `json:"action" validate:"required,oneof=add remove"`
}

// UpdateItem adds or removes one unit of a product in the user's active order.
func (h *Handler) UpdateItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	ctx := c.Request.Context()

	var req updateItemReq
	if !h.bind(c, &req) {
		return
	}
	action, err := cart.ParseAction(req.Action)
	if err != nil {
		abortWithError(c, "invalid cart action", err)
		return
	}

	user, _ := auth.UserFromContext(ctx)
	customer, err := h.customers.Resolve(ctx, user)
	if err != nil {
		abortWithError(c, "error resolving customer", err)
		return
	}
	qty, err := h.cart.UpdateItem(ctx, customer, int64(req.ProductID), action)
	if err != nil {
		abortWithError(c, "error updating cart item", err)
		return
	}

	slog.Info("cart item updated", slog.String(logkey.TraceID, traceId),
		slog.Int64(logkey.CustomerID, customer.ID), slog.Int64(logkey.ProductID, int64(req.ProductID)),
		slog.String(logkey.Action, req.Action), slog.Int("Quantity", qty))
	c.JSON(http.StatusOK, "Item was added")
}

type orderForm struct {
	Total *decimal.Decimal `json:"total" validate:"required"`
	Name  string           `json:"name"`
	Email string           `json:"email" validate:"omitempty,email"`
}

type shippingReq struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zipcode string `json:"zipcode"`
}

type guestItemReq struct {
	ProductID productRef `json:"productId" validate:"gt=0"`
	Quantity  int        `json:"quantity" validate:"gt=0,lte=10000"`
}

type processOrderReq struct {
	Form     orderForm      `json:"form"`
	Shipping *shippingReq   `json:"shipping"`
	Items    []guestItemReq `json:"items" validate:"dive"`
}

func (r processOrderReq) submission() checkout.Submission {
	sub := checkout.Submission{Total: *r.Form.Total}
	if r.Shipping != nil {
		sub.Shipping = &checkout.ShippingFields{
			Address: r.Shipping.Address,
			City:    r.Shipping.City,
			State:   r.Shipping.State,
			Zipcode: r.Shipping.Zipcode,
		}
	}
	return sub
}

// ProcessOrder finalizes the visitor's order. Signed-in users check out their
// stored cart; guests send their items along with the form.
func (h *Handler) ProcessOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	ctx := c.Request.Context()

	var req processOrderReq
	if !h.bind(c, &req) {
		return
	}

	var (
		res checkout.Result
		err error
	)
	if user, ok := auth.UserFromContext(ctx); ok {
		customer, rerr := h.customers.Resolve(ctx, user)
		if rerr != nil {
			abortWithError(c, "error resolving customer", rerr)
			return
		}
		res, err = h.checkout.Finalize(ctx, customer, req.submission())
	} else {
		items := make([]checkout.GuestItem, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, checkout.GuestItem{ProductID: int64(it.ProductID), Quantity: it.Quantity})
		}
		res, err = h.checkout.FinalizeGuest(ctx, checkout.GuestSubmission{
			Submission: req.submission(),
			Name:       req.Form.Name,
			Email:      req.Form.Email,
			Items:      items,
		})
	}

	if errors.Is(err, domain.ErrTotalMismatch) {
		slog.Warn("order total mismatch", slog.String(logkey.TraceID, traceId),
			slog.Int64(logkey.OrderID, res.OrderID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":          err.Error(),
			"transaction_id": res.TransactionID,
			"complete":       false,
		})
		return
	}
	if err != nil {
		abortWithError(c, "error processing order", err)
		return
	}

	slog.Info("order completed", slog.String(logkey.TraceID, traceId),
		slog.Int64(logkey.OrderID, res.OrderID), slog.Int64(logkey.CustomerID, res.CustomerID))
	c.JSON(http.StatusOK, gin.H{
		"message":        "Payment submitted..",
		"transaction_id": res.TransactionID,
		"complete":       res.Complete,
	})
}
