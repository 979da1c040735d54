package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/store"
	"github.com/example/storefront/internal/utils"
)

// OrderHandler serves the caller's order receipts.
type OrderHandler struct {
	checkout *services.CheckoutService
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(checkout *services.CheckoutService) *OrderHandler {
	return &OrderHandler{checkout: checkout}
}

// ListOrders returns orders for authenticated user.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	pg := utils.ParsePagination(c, 20)
	orders, total, err := h.checkout.Orders(c.UserContext(), userID, store.Page{Limit: pg.Limit, Offset: pg.Offset})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"orders":     orders,
		"pagination": pagination(pg, total),
	})
}

// GetOrder returns a single order for the authenticated user.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	order, err := h.checkout.Order(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(order)
}
