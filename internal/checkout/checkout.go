package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/stores/kafka"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"
)

type ShippingFields struct {
	Address string
	City    string
	State   string
	Zipcode string
}

func (s *ShippingFields) validate() error {
	if s == nil {
		return fmt.Errorf("%w: shipping details are required", domain.ErrValidation)
	}
	for _, f := range []struct{ name, value string }{
		{"address", s.Address},
		{"city", s.City},
		{"state", s.State},
		{"zipcode", s.Zipcode},
	} {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: shipping %s is required", domain.ErrValidation, f.name)
		}
	}
	return nil
}

// Submission is what the buyer posts when placing an order.
type Submission struct {
	Total    decimal.Decimal
	Shipping *ShippingFields
}

type GuestItem struct {
	ProductID int64
	Quantity  int
}

// GuestSubmission carries the whole cart because guests have no stored one.
type GuestSubmission struct {
	Submission
	Name  string
	Email string
	Items []GuestItem
}

type Result struct {
	OrderID       int64           `json:"order_id"`
	CustomerID    int64           `json:"customer_id"`
	TransactionID string          `json:"transaction_id"`
	Complete      bool            `json:"complete"`
	Total         decimal.Decimal `json:"total"`
	ShippingSaved bool            `json:"shipping_saved"`
}

// Publisher receives completed orders after they are committed.
type Publisher interface {
	PublishOrderCompleted(ctx context.Context, evt kafka.OrderCompletedEvent) error
}

type Finalizer struct {
	repo repository.Repository
	pub  Publisher
	now  func() time.Time
}

// NewFinalizer builds a Finalizer. pub may be nil when no event sink is
// configured.
func NewFinalizer(repo repository.Repository, pub Publisher) (*Finalizer, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is nil")
	}
	return &Finalizer{repo: repo, pub: pub, now: time.Now}, nil
}

// Finalize places the customer's active order. The order is completed only
// when sub.Total matches the cart total; otherwise the order stays open and
// ErrTotalMismatch is returned with the result. The first attempt stamps the
// transaction id either way.
func (f *Finalizer) Finalize(ctx context.Context, customer domain.Customer, sub Submission) (Result, error) {
	var res Result
	var summary domain.CartSummary
	err := f.repo.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		if summary, err = cart.Load(ctx, tx, customer.ID); err != nil {
			return err
		}
		res, err = f.finalize(ctx, tx, customer, summary, sub)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return f.settle(ctx, res, summary, false, sub)
}

// FinalizeGuest creates a customer with no account link, builds its order from
// the submitted items and finalizes it the same way Finalize does, all in one
// unit of work.
func (f *Finalizer) FinalizeGuest(ctx context.Context, sub GuestSubmission) (Result, error) {
	perProduct := make(map[int64]int, len(sub.Items))
	for _, it := range sub.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 || it.Quantity > domain.MaxItemQuantity {
			return Result{}, fmt.Errorf("%w: item %d has quantity %d", domain.ErrValidation, it.ProductID, it.Quantity)
		}
		perProduct[it.ProductID] += it.Quantity
		if perProduct[it.ProductID] > domain.MaxItemQuantity {
			return Result{}, fmt.Errorf("%w: product %d quantity exceeds %d", domain.ErrValidation, it.ProductID, domain.MaxItemQuantity)
		}
	}

	var res Result
	var summary domain.CartSummary
	err := f.repo.WithTx(ctx, func(tx repository.Tx) error {
		customer, err := tx.CreateGuestCustomer(ctx, strings.TrimSpace(sub.Name), strings.TrimSpace(sub.Email))
		if err != nil {
			return err
		}
		order, err := tx.ActiveOrder(ctx, customer.ID)
		if err != nil {
			return err
		}
		for _, it := range sub.Items {
			if _, err := tx.GetProduct(ctx, it.ProductID); err != nil {
				return err
			}
			if _, err := tx.AdjustItem(ctx, order.ID, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		if summary, err = cart.LoadOrder(ctx, tx, order); err != nil {
			return err
		}
		res, err = f.finalize(ctx, tx, customer, summary, sub.Submission)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return f.settle(ctx, res, summary, true, sub.Submission)
}

func (f *Finalizer) finalize(ctx context.Context, tx repository.Tx, customer domain.Customer, summary domain.CartSummary, sub Submission) (Result, error) {
	order := *summary.Order
	if summary.Shipping {
		if err := sub.Shipping.validate(); err != nil {
			return Result{}, err
		}
	}

	if order.TransactionID == nil {
		id := f.transactionID(order.ID)
		order.TransactionID = &id
	}
	order.Complete = sub.Total.Round(domain.CurrencyPlaces).Equal(summary.Total)
	if err := tx.SaveOrder(ctx, order); err != nil {
		return Result{}, err
	}

	res := Result{
		OrderID:       order.ID,
		CustomerID:    customer.ID,
		TransactionID: *order.TransactionID,
		Complete:      order.Complete,
		Total:         summary.Total,
	}
	if order.Complete && summary.Shipping {
		created, err := tx.CreateShippingAddress(ctx, domain.ShippingAddress{
			CustomerID: customer.ID,
			OrderID:    order.ID,
			Address:    strings.TrimSpace(sub.Shipping.Address),
			City:       strings.TrimSpace(sub.Shipping.City),
			State:      strings.TrimSpace(sub.Shipping.State),
			Zipcode:    strings.TrimSpace(sub.Shipping.Zipcode),
		})
		if err != nil {
			return Result{}, err
		}
		res.ShippingSaved = created
	}
	return res, nil
}

// settle runs after commit: it reports a mismatch or publishes the completed
// order. Publishing failures are logged only.
func (f *Finalizer) settle(ctx context.Context, res Result, summary domain.CartSummary, guest bool, sub Submission) (Result, error) {
	if !res.Complete {
		return res, fmt.Errorf("%w: submitted %s, cart total %s", domain.ErrTotalMismatch,
			sub.Total.StringFixed(domain.CurrencyPlaces), summary.Total.StringFixed(domain.CurrencyPlaces))
	}
	if f.pub == nil {
		return res, nil
	}

	evt := kafka.OrderCompletedEvent{
		OrderID:       res.OrderID,
		CustomerID:    res.CustomerID,
		TransactionID: res.TransactionID,
		Total:         res.Total,
		Guest:         guest,
		Items:         make([]kafka.OrderCompletedItem, 0, len(summary.Items)),
		CompletedAt:   f.now().UTC(),
	}
	for _, it := range summary.Items {
		evt.Items = append(evt.Items, kafka.OrderCompletedItem{ProductID: it.Product.ID, Quantity: it.Quantity, Price: it.Product.Price})
	}
	if err := f.pub.PublishOrderCompleted(ctx, evt); err != nil {
		slog.Error("failed to publish order completed event", slog.String(logkey.TraceID, ctxmanage.TraceIdFromContext(ctx)),
			slog.Int64(logkey.OrderID, res.OrderID), slog.String(logkey.ERROR, err.Error()))
	}
	return res, nil
}

// transactionID is the current time in seconds with microsecond precision,
// suffixed with the order id so that two orders stamped in the same
// microsecond still differ.
func (f *Finalizer) transactionID(orderID int64) string {
	return strconv.FormatFloat(float64(f.now().UnixMicro())/1e6, 'f', 6, 64) + "-" + strconv.FormatInt(orderID, 10)
}
