package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
)

// CartHandler exposes the signed-in user's cart.
type CartHandler struct {
	checkout *services.CheckoutService
}

// NewCartHandler constructs a CartHandler.
func NewCartHandler(checkout *services.CheckoutService) *CartHandler {
	return &CartHandler{checkout: checkout}
}

func currentUser(c *fiber.Ctx) (uint, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return userID, nil
}

func productIDParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}
	return id, nil
}

// GetCart returns the cart.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	view, err := h.checkout.Cart(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

type addItemRequest struct {
	Product  cart.Product `json:"product"`
	Quantity int          `json:"quantity"`
}

// AddItem adds a product snapshot to the cart.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	view, err := h.checkout.AddItem(c.UserContext(), userID, req.Product, req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem sets the quantity of a line. Zero or less removes it.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	productID, err := productIDParam(c)
	if err != nil {
		return err
	}
	var req updateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	view, err := h.checkout.SetQuantity(c.UserContext(), userID, productID, req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// RemoveItem drops a line from the cart.
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	productID, err := productIDParam(c)
	if err != nil {
		return err
	}

	view, err := h.checkout.RemoveItem(c.UserContext(), userID, productID)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// ClearCart empties the cart.
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	view, err := h.checkout.ClearCart(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(view)
}
