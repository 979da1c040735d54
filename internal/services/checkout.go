package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/session"
	"github.com/example/storefront/internal/store"
)

// Order statuses.
const (
	OrderStatusConfirmed = "confirmed"
)

var (
	// ErrInvalidProduct rejects a cart addition without a usable product snapshot.
	ErrInvalidProduct = newError(KindValidation, "Product id, name and a non-negative price are required.")
	// ErrQuantityTooLarge rejects a line above cart.MaxQuantity.
	ErrQuantityTooLarge = newError(KindValidation, "Quantity must not exceed "+strconv.Itoa(cart.MaxQuantity)+".")
)

// OrderNotifier is told about every confirmed order.
type OrderNotifier interface {
	NotifyNewOrder(ctx context.Context, order OrderNotification) error
}

// CheckoutConfig tunes CheckoutService.
type CheckoutConfig struct {
	Pricing    checkout.Pricing
	ClearDelay time.Duration
}

// CartView is a priced snapshot of a cart.
type CartView struct {
	Items     []cart.Item     `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"itemCount"`
	LineCount int             `json:"lineCount"`
}

func newCartView(c *cart.Cart) *CartView {
	return &CartView{
		Items:     c.Items,
		Subtotal:  c.Subtotal(),
		ItemCount: c.ItemCount(),
		LineCount: c.LineCount(),
	}
}

// PlaceResult is the outcome of placing or acknowledging an order.
type PlaceResult struct {
	Summary         checkout.Summary `json:"summary"`
	Confirmed       bool             `json:"confirmed"`
	DiscountPending bool             `json:"discountPending"`
	OrderID         string           `json:"orderId,omitempty"`
}

// CheckoutService runs cart and checkout operations against per-user session
// state and records confirmed orders.
type CheckoutService struct {
	sessions  *session.Manager
	orders    *store.Orders
	scheduler *checkout.Scheduler
	notifier  OrderNotifier
	cfg       CheckoutConfig
	lg        *zap.Logger
	now       func() time.Time

	notifications sync.WaitGroup
}

// NewCheckoutService constructs a CheckoutService. notifier may be nil.
func NewCheckoutService(
	sessions *session.Manager,
	orders *store.Orders,
	scheduler *checkout.Scheduler,
	notifier OrderNotifier,
	cfg CheckoutConfig,
	lg *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		sessions:  sessions,
		orders:    orders,
		scheduler: scheduler,
		notifier:  notifier,
		cfg:       cfg,
		lg:        lg,
		now:       time.Now,
	}
}

func clearKey(userID uint) string {
	return "cart-clear:" + strconv.FormatUint(uint64(userID), 10)
}

// Cart returns the cart of userID.
func (s *CheckoutService) Cart(ctx context.Context, userID uint) (*CartView, error) {
	st, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newCartView(st.Cart), nil
}

// AddItem merges qty of p into the cart.
func (s *CheckoutService) AddItem(ctx context.Context, userID uint, p cart.Product, qty int) (*CartView, error) {
	if p.ID <= 0 || p.Name == "" || p.Price.IsNegative() {
		return nil, ErrInvalidProduct
	}
	if qty > cart.MaxQuantity {
		return nil, ErrQuantityTooLarge
	}
	return s.updateCart(ctx, userID, func(c *cart.Cart) error { return c.Add(p, qty) })
}

// SetQuantity overwrites the quantity of a line. A non-positive qty removes it.
func (s *CheckoutService) SetQuantity(ctx context.Context, userID uint, productID int64, qty int) (*CartView, error) {
	if qty > cart.MaxQuantity {
		return nil, ErrQuantityTooLarge
	}
	return s.updateCart(ctx, userID, func(c *cart.Cart) error { return c.SetQuantity(productID, qty) })
}

// RemoveItem drops a line.
func (s *CheckoutService) RemoveItem(ctx context.Context, userID uint, productID int64) (*CartView, error) {
	return s.updateCart(ctx, userID, func(c *cart.Cart) error {
		c.Remove(productID)
		return nil
	})
}

// ClearCart empties the cart.
func (s *CheckoutService) ClearCart(ctx context.Context, userID uint) (*CartView, error) {
	return s.updateCart(ctx, userID, func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

// updateCart applies fn unless the checkout has frozen the cart.
func (s *CheckoutService) updateCart(ctx context.Context, userID uint, fn func(*cart.Cart) error) (*CartView, error) {
	st, err := s.sessions.Update(ctx, userID, func(st *session.State) error {
		if err := st.Checkout.CartEditable(); err != nil {
			return err
		}
		return fn(st.Cart)
	})
	if errors.Is(err, cart.ErrQuantityLimit) {
		return nil, ErrQuantityTooLarge
	}
	if err != nil {
		return nil, err
	}
	return newCartView(st.Cart), nil
}

// Summary prices the checkout of userID.
func (s *CheckoutService) Summary(ctx context.Context, userID uint) (checkout.Summary, error) {
	st, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return checkout.Summary{}, err
	}
	return st.Checkout.Summarize(st.Cart, s.cfg.Pricing), nil
}

// Proceed moves from the cart step to details.
func (s *CheckoutService) Proceed(ctx context.Context, userID uint) (checkout.Summary, error) {
	return s.step(ctx, userID, func(st *session.State) error {
		return st.Checkout.Proceed(st.Cart)
	})
}

// SubmitDetails records delivery details and moves to payment.
func (s *CheckoutService) SubmitDetails(ctx context.Context, userID uint, d checkout.DeliveryDetails) (checkout.Summary, error) {
	return s.step(ctx, userID, func(st *session.State) error {
		return st.Checkout.SubmitDetails(d)
	})
}

// Back steps the checkout backwards.
func (s *CheckoutService) Back(ctx context.Context, userID uint) (checkout.Summary, error) {
	return s.step(ctx, userID, func(st *session.State) error {
		return st.Checkout.Back()
	})
}

// Restart begins a new checkout on the cart step. Leaving a confirmed order
// clears its cart at once instead of waiting for the scheduled clear.
func (s *CheckoutService) Restart(ctx context.Context, userID uint) (checkout.Summary, error) {
	var confirmed bool
	sum, err := s.step(ctx, userID, func(st *session.State) error {
		if st.Checkout.Step == checkout.StepConfirmation {
			confirmed = true
			st.Cart.Clear()
		}
		st.Checkout.Restart()
		return nil
	})
	if err == nil && confirmed {
		s.scheduler.Cancel(clearKey(userID))
	}
	return sum, err
}

func (s *CheckoutService) step(ctx context.Context, userID uint, fn func(*session.State) error) (checkout.Summary, error) {
	st, err := s.sessions.Update(ctx, userID, fn)
	if err != nil {
		return checkout.Summary{}, err
	}
	return st.Checkout.Summarize(st.Cart, s.cfg.Pricing), nil
}

// PlaceOrder places the order with method. A first order stops short of
// confirmation until AcknowledgeDiscount.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID uint, method checkout.PaymentMethod) (*PlaceResult, error) {
	var order *models.Order
	st, err := s.sessions.Update(ctx, userID, func(st *session.State) error {
		placement, confirmed, err := st.Checkout.PlaceOrder(st.Cart, s.cfg.Pricing, method, s.now())
		if err != nil || !confirmed {
			return err
		}
		order, err = s.record(ctx, userID, placement)
		return err
	})
	if err != nil {
		s.discard(ctx, order)
		return nil, err
	}
	return s.finish(userID, st, order), nil
}

// AcknowledgeDiscount confirms a first order that is waiting on the discount
// notice.
func (s *CheckoutService) AcknowledgeDiscount(ctx context.Context, userID uint) (*PlaceResult, error) {
	var order *models.Order
	st, err := s.sessions.Update(ctx, userID, func(st *session.State) error {
		placement, err := st.Checkout.AcknowledgeDiscount()
		if err != nil {
			return err
		}
		order, err = s.record(ctx, userID, placement)
		return err
	})
	if err != nil {
		s.discard(ctx, order)
		return nil, err
	}
	return s.finish(userID, st, order), nil
}

// Orders lists the receipts of userID.
func (s *CheckoutService) Orders(ctx context.Context, userID uint, page store.Page) ([]models.Order, int64, error) {
	return s.orders.ListByUser(ctx, userID, page)
}

// ErrOrderNotFound is returned for an unknown or foreign receipt id.
var ErrOrderNotFound = newError(KindNotFound, "Order not found.")

// Order returns one receipt of userID.
func (s *CheckoutService) Order(ctx context.Context, userID uint, id uuid.UUID) (*models.Order, error) {
	o, err := s.orders.ByID(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

// Logout cancels any pending cart clear and discards the session state.
func (s *CheckoutService) Logout(ctx context.Context, userID uint) error {
	s.scheduler.Cancel(clearKey(userID))
	return s.sessions.Drop(ctx, userID)
}

// Wait blocks until in-flight order notifications finish.
func (s *CheckoutService) Wait() {
	s.notifications.Wait()
}

func (s *CheckoutService) record(ctx context.Context, userID uint, p *checkout.Placement) (*models.Order, error) {
	order := &models.Order{
		UserID:          userID,
		Status:          OrderStatusConfirmed,
		PlacedAt:        p.PlacedAt,
		Subtotal:        p.Subtotal,
		Discount:        p.Discount,
		TotalAmount:     p.Total,
		EstimatedDays:   p.EstimatedDeliveryDays,
		PaymentMethod:   string(p.PaymentMethod),
		ReceiverName:    p.Details.ReceiverName,
		ReceiverEmail:   p.Details.Email,
		ReceiverPhone:   p.Details.Phone,
		DeliveryAddress: p.Details.Address,
		DeliveryPincode: p.Details.Pincode,
		DeliveryCity:    p.Details.City,
		Instructions:    p.Details.Instructions,
	}
	for _, item := range p.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   item.Product.ID,
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.Product.Price,
			LineTotal:   item.LineTotal(),
		})
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, errors.Wrap(err, "record order")
	}
	return order, nil
}

// discard deletes a receipt recorded inside a session update that failed to
// persist, so a retry does not leave a duplicate.
func (s *CheckoutService) discard(ctx context.Context, order *models.Order) {
	if order == nil {
		return
	}
	if err := s.orders.Delete(context.WithoutCancel(ctx), order.ID); err != nil {
		s.lg.Error("Failed to discard unsaved order",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}

// finish schedules the delayed cart clear and the admin notification for a
// confirmed order. order is nil while a discount acknowledgement is pending.
func (s *CheckoutService) finish(userID uint, st *session.State, order *models.Order) *PlaceResult {
	res := &PlaceResult{
		Summary:         st.Checkout.Summarize(st.Cart, s.cfg.Pricing),
		Confirmed:       order != nil,
		DiscountPending: st.Checkout.AwaitingAcknowledgement(),
	}
	if order == nil {
		return res
	}
	res.OrderID = order.ID.String()

	s.lg.Info("Order confirmed",
		zap.Uint("user_id", userID),
		zap.String("order_id", res.OrderID),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)

	s.scheduler.Schedule(clearKey(userID), s.cfg.ClearDelay, func() {
		_, err := s.sessions.Update(context.Background(), userID, func(st *session.State) error {
			if st.Checkout.Step == checkout.StepConfirmation {
				st.Cart.Clear()
			}
			return nil
		})
		if err != nil {
			s.lg.Error("Failed to clear cart", zap.Uint("user_id", userID), zap.Error(err))
		}
	})

	if s.notifier != nil {
		s.notifications.Add(1)
		go func() {
			defer s.notifications.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := s.notifier.NotifyNewOrder(ctx, orderNotification(order)); err != nil {
				s.lg.Warn("Order notification failed", zap.String("order_id", res.OrderID), zap.Error(err))
			}
		}()
	}
	return res
}

func orderNotification(o *models.Order) OrderNotification {
	n := OrderNotification{
		OrderID:       o.ID.String(),
		Subtotal:      o.Subtotal,
		Discount:      o.Discount,
		TotalAmount:   o.TotalAmount,
		CustomerName:  o.ReceiverName,
		CustomerPhone: o.ReceiverPhone,
		City:          o.DeliveryCity,
		PaymentMethod: o.PaymentMethod,
		EstimatedDays: o.EstimatedDays,
	}
	for _, item := range o.Items {
		n.Items = append(n.Items, OrderItemNotification{
			Name:     item.ProductName,
			Quantity: item.Quantity,
			Price:    item.UnitPrice,
		})
	}
	return n
}
