package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/services"
)

// CheckoutHandler drives the checkout wizard.
type CheckoutHandler struct {
	checkout *services.CheckoutService
}

// NewCheckoutHandler constructs a CheckoutHandler.
func NewCheckoutHandler(svc *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc}
}

type stepFunc func(ctx context.Context, userID uint) (checkout.Summary, error)

func (h *CheckoutHandler) step(c *fiber.Ctx, fn stepFunc) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	summary, err := fn(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// Summary returns the priced checkout.
func (h *CheckoutHandler) Summary(c *fiber.Ctx) error {
	return h.step(c, h.checkout.Summary)
}

// Proceed moves from the cart to the details step.
func (h *CheckoutHandler) Proceed(c *fiber.Ctx) error {
	return h.step(c, h.checkout.Proceed)
}

// Back steps backwards.
func (h *CheckoutHandler) Back(c *fiber.Ctx) error {
	return h.step(c, h.checkout.Back)
}

// Restart begins a new checkout.
func (h *CheckoutHandler) Restart(c *fiber.Ctx) error {
	return h.step(c, h.checkout.Restart)
}

// SubmitDetails records the delivery details.
func (h *CheckoutHandler) SubmitDetails(c *fiber.Ctx) error {
	var req checkout.DeliveryDetails
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return h.step(c, func(ctx context.Context, userID uint) (checkout.Summary, error) {
		return h.checkout.SubmitDetails(ctx, userID, req)
	})
}

type placeOrderRequest struct {
	PaymentMethod checkout.PaymentMethod `json:"paymentMethod"`
}

// PlaceOrder places the order. A first order answers with the discount notice
// and waits for AcknowledgeDiscount.
func (h *CheckoutHandler) PlaceOrder(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req placeOrderRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	res, err := h.checkout.PlaceOrder(c.UserContext(), userID, req.PaymentMethod)
	if err != nil {
		return err
	}
	return c.JSON(placeResponse(res))
}

// AcknowledgeDiscount confirms a first order.
func (h *CheckoutHandler) AcknowledgeDiscount(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	res, err := h.checkout.AcknowledgeDiscount(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(placeResponse(res))
}

func placeResponse(res *services.PlaceResult) fiber.Map {
	body := fiber.Map{
		"summary":         res.Summary,
		"confirmed":       res.Confirmed,
		"discountPending": res.DiscountPending,
	}
	switch {
	case res.DiscountPending:
		body["message"] = "Congratulations! You saved " + services.FormatPrice(res.Summary.Discount) + " on your first order."
	case res.Confirmed:
		body["orderId"] = res.OrderID
		body["message"] = "Order placed successfully."
	}
	return body
}
