package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	maxLimit = 500
	// maxPage keeps (page-1)*maxLimit well inside int range.
	maxPage = 1 << 20
)

// Pagination holds pagination parameters.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination reads page and limit query params, falling back to defaultLimit.
func ParsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	page := parseInt(c.Query("page", "1"), 1)
	limit := parseInt(c.Query("limit", strconv.Itoa(defaultLimit)), defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if page <= 0 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
