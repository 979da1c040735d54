package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/store"
	"github.com/example/storefront/internal/utils"
)

const adminListLimit = 100

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	auth     *services.AuthService
	visitors *store.Visitors
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(auth *services.AuthService, visitors *store.Visitors) *AdminHandler {
	return &AdminHandler{auth: auth, visitors: visitors}
}

// ListUsers returns registered users newest first.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c, adminListLimit)
	users, total, err := h.auth.ListUsers(c.UserContext(), store.Page{Limit: pg.Limit, Offset: pg.Offset})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"users":      users,
		"pagination": pagination(pg, total),
	})
}

// ListVisitors returns the request log newest first.
func (h *AdminHandler) ListVisitors(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c, adminListLimit)
	visitors, total, err := h.visitors.Recent(c.UserContext(), store.Page{Limit: pg.Limit, Offset: pg.Offset})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"visitors":   visitors,
		"pagination": pagination(pg, total),
	})
}

func pagination(pg utils.Pagination, total int64) fiber.Map {
	return fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}
}
