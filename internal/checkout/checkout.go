// Package checkout drives a cart through review, delivery details, payment
// and confirmation.
package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/cart"
)

// Step is a checkout state.
type Step string

const (
	StepCart         Step = "cart"
	StepDetails      Step = "details"
	StepPayment      Step = "payment"
	StepConfirmation Step = "confirmation"
)

// PaymentMethod is the simulated payment option picked on the payment step.
type PaymentMethod string

const (
	PaymentCreditCard     PaymentMethod = "credit_card"
	PaymentDebitCard      PaymentMethod = "debit_card"
	PaymentUPI            PaymentMethod = "upi"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// Valid reports whether m is a known payment option.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentDebitCard, PaymentUPI, PaymentCashOnDelivery:
		return true
	}
	return false
}

// Sentinel errors for checkout transitions.
var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
)

// TransitionError indicates an action that the current step does not allow.
type TransitionError struct {
	From   Step
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s from %s step", e.Action, e.From)
}

// MissingDetailsError lists required delivery fields that were left empty.
type MissingDetailsError struct {
	Fields []string
}

func (e *MissingDetailsError) Error() string {
	return "missing delivery details: " + strings.Join(e.Fields, ", ")
}

// DeliveryDetails is the input of the details step. Instructions are optional.
type DeliveryDetails struct {
	ReceiverName string `json:"receiverName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Pincode      string `json:"pincode"`
	City         string `json:"city"`
	Instructions string `json:"instructions,omitempty"`
}

// Validate reports every required field that is blank.
func (d DeliveryDetails) Validate() error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"receiverName", d.ReceiverName},
		{"email", d.Email},
		{"phone", d.Phone},
		{"address", d.Address},
		{"pincode", d.Pincode},
		{"city", d.City},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &MissingDetailsError{Fields: missing}
	}
	return nil
}

// Pricing holds the promotional rules applied to a checkout.
type Pricing struct {
	FirstOrderDiscount decimal.Decimal
}

// NewPricing deducts firstOrderDiscount currency units from a first order.
func NewPricing(firstOrderDiscount int64) Pricing {
	return Pricing{FirstOrderDiscount: decimal.NewFromInt(firstOrderDiscount)}
}

// EstimatedDeliveryDays is 4 for carts with more than two lines and 2 otherwise.
func EstimatedDeliveryDays(lineCount int) int {
	if lineCount > 2 {
		return 4
	}
	return 2
}

// Quote is the price breakdown of a cart under a pricing policy.
type Quote struct {
	Subtotal              decimal.Decimal `json:"subtotal"`
	Discount              decimal.Decimal `json:"discount"`
	Total                 decimal.Decimal `json:"total"`
	EstimatedDeliveryDays int             `json:"estimatedDeliveryDays"`
}

// Price computes the quote for c. The discount applies only on a first order
// with a positive subtotal and never exceeds the subtotal, so Subtotal minus
// Discount is always Total.
func Price(c *cart.Cart, p Pricing, firstOrder bool) Quote {
	subtotal := c.Subtotal()
	discount := decimal.Zero
	if firstOrder && subtotal.IsPositive() {
		discount = decimal.Min(p.FirstOrderDiscount, subtotal)
	}
	total := subtotal.Sub(discount)
	return Quote{
		Subtotal:              subtotal,
		Discount:              discount,
		Total:                 total,
		EstimatedDeliveryDays: EstimatedDeliveryDays(c.LineCount()),
	}
}

// Placement is an order frozen at the moment it was placed.
type Placement struct {
	Quote
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Details       DeliveryDetails `json:"details"`
	Items         []cart.Item     `json:"items"`
	PlacedAt      time.Time       `json:"placedAt"`
}

// Session is the checkout state of one user. It is serializable so it can be
// kept in any session store.
type Session struct {
	Step       Step             `json:"step"`
	FirstOrder bool             `json:"firstOrder"`
	Details    *DeliveryDetails `json:"details,omitempty"`
	// Pending is set while a first-order placement waits for the discount
	// acknowledgement.
	Pending *Placement `json:"pending,omitempty"`
	// Placed is set once the session reaches confirmation.
	Placed *Placement `json:"placed,omitempty"`
}

// NewSession starts a checkout on the cart step for a user on their first order.
func NewSession() *Session {
	return &Session{Step: StepCart, FirstOrder: true}
}

// AwaitingAcknowledgement reports whether a placed first order waits for the
// user to acknowledge the discount.
func (s *Session) AwaitingAcknowledgement() bool {
	return s.Pending != nil
}

// CartEditable returns a TransitionError while the cart is frozen: a placed
// first order awaits acknowledgement or the order is confirmed.
func (s *Session) CartEditable() error {
	if s.Pending != nil || s.Step == StepConfirmation {
		return &TransitionError{From: s.Step, Action: "change the cart"}
	}
	return nil
}

// Summary describes the session for display.
type Summary struct {
	Quote
	Step                    Step       `json:"step"`
	FirstOrder              bool       `json:"firstOrder"`
	AwaitingAcknowledgement bool       `json:"awaitingAcknowledgement"`
	ItemCount               int        `json:"itemCount"`
	LineCount               int        `json:"lineCount"`
	Placed                  *Placement `json:"placed,omitempty"`
}

// Summarize prices c for the current step. Once confirmed the frozen
// placement is reported instead of the live cart.
func (s *Session) Summarize(c *cart.Cart, p Pricing) Summary {
	sum := Summary{
		Quote:                   Price(c, p, s.FirstOrder),
		Step:                    s.Step,
		FirstOrder:              s.FirstOrder,
		AwaitingAcknowledgement: s.AwaitingAcknowledgement(),
		ItemCount:               c.ItemCount(),
		LineCount:               c.LineCount(),
		Placed:                  s.Placed,
	}
	if s.Pending != nil {
		sum.Quote = s.Pending.Quote
	}
	return sum
}

// Proceed moves from the cart step to the details step. An empty cart stays put.
func (s *Session) Proceed(c *cart.Cart) error {
	if s.Step != StepCart {
		return &TransitionError{From: s.Step, Action: "proceed to details"}
	}
	if c.IsEmpty() {
		return ErrEmptyCart
	}
	s.Step = StepDetails
	return nil
}

// SubmitDetails records delivery details and moves to the payment step.
func (s *Session) SubmitDetails(d DeliveryDetails) error {
	if s.Step != StepDetails {
		return &TransitionError{From: s.Step, Action: "submit details"}
	}
	if err := d.Validate(); err != nil {
		return err
	}
	s.Details = &d
	s.Step = StepPayment
	return nil
}

// Back returns from details to cart or from payment to details.
func (s *Session) Back() error {
	switch {
	case s.Step == StepDetails:
		s.Step = StepCart
	case s.Step == StepPayment && s.Pending == nil:
		s.Step = StepDetails
	default:
		return &TransitionError{From: s.Step, Action: "go back"}
	}
	return nil
}

// PlaceOrder prices c and either confirms immediately or, on a first order,
// holds the placement until AcknowledgeDiscount. The returned bool is true
// when the session reached confirmation.
func (s *Session) PlaceOrder(c *cart.Cart, p Pricing, method PaymentMethod, now time.Time) (*Placement, bool, error) {
	if s.Step != StepPayment || s.Pending != nil {
		return nil, false, &TransitionError{From: s.Step, Action: "place order"}
	}
	if method == "" {
		method = PaymentCreditCard
	}
	if !method.Valid() {
		return nil, false, ErrInvalidPaymentMethod
	}
	if c.IsEmpty() {
		return nil, false, ErrEmptyCart
	}

	placement := &Placement{
		Quote:         Price(c, p, s.FirstOrder),
		PaymentMethod: method,
		Items:         append([]cart.Item(nil), c.Items...),
		PlacedAt:      now,
	}
	if s.Details != nil {
		placement.Details = *s.Details
	}

	if s.FirstOrder {
		s.Pending = placement
		return placement, false, nil
	}

	s.confirm(placement)
	return placement, true, nil
}

// AcknowledgeDiscount confirms a first-order placement and clears the
// first-order flag.
func (s *Session) AcknowledgeDiscount() (*Placement, error) {
	if s.Pending == nil {
		return nil, &TransitionError{From: s.Step, Action: "acknowledge discount"}
	}
	placement := s.Pending
	s.Pending = nil
	s.FirstOrder = false
	s.confirm(placement)
	return placement, nil
}

// Restart begins a fresh checkout on the cart step. The first-order flag
// carries over.
func (s *Session) Restart() {
	*s = Session{Step: StepCart, FirstOrder: s.FirstOrder}
}

func (s *Session) confirm(p *Placement) {
	s.Placed = p
	s.Step = StepConfirmation
}
