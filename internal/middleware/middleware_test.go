package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

const secret = "test-secret"

func whoami(c *fiber.Ctx) error {
	id, ok := GetCurrentUserID(c)
	if !ok {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"id": id})
}

func TestAuthMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/me", AuthMiddleware(secret), whoami)

	valid, err := utils.GenerateToken(secret, 7, "a@x.com", time.Hour)
	require.NoError(t, err)
	expired, err := utils.GenerateToken(secret, 7, "a@x.com", -time.Minute)
	require.NoError(t, err)
	foreign, err := utils.GenerateToken("other", 7, "a@x.com", time.Hour)
	require.NoError(t, err)

	for name, tc := range map[string]struct {
		header string
		status int
	}{
		"Valid":     {"Bearer " + valid, fiber.StatusOK},
		"LowerCase": {"bearer " + valid, fiber.StatusOK},
		"Missing":   {"", fiber.StatusUnauthorized},
		"NoScheme":  {valid, fiber.StatusUnauthorized},
		"Expired":   {"Bearer " + expired, fiber.StatusUnauthorized},
		"Foreign":   {"Bearer " + foreign, fiber.StatusUnauthorized},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestAdminKeyMiddleware(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }

	enabled := fiber.New()
	enabled.Get("/", AdminKeyMiddleware("k3y"), ok)
	disabled := fiber.New()
	disabled.Get("/", AdminKeyMiddleware(""), ok)

	for name, tc := range map[string]struct {
		app    *fiber.App
		key    string
		status int
	}{
		"Match":    {enabled, "k3y", fiber.StatusNoContent},
		"Wrong":    {enabled, "nope", fiber.StatusUnauthorized},
		"Missing":  {enabled, "", fiber.StatusUnauthorized},
		"Disabled": {disabled, "", fiber.StatusForbidden},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/", nil)
			if tc.key != "" {
				req.Header.Set(AdminKeyHeader, tc.key)
			}
			resp, err := tc.app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

type visitLog struct {
	mu     sync.Mutex
	visits []models.Visitor
	err    error
}

func (l *visitLog) Record(_ context.Context, v *models.Visitor) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.visits = append(l.visits, *v)
	return nil
}

func TestVisitorLogger(t *testing.T) {
	visits := &visitLog{}
	app := fiber.New()
	app.Use(VisitorLogger(visits, zap.NewNop()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderUserAgent, "test-agent")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Len(t, visits.visits, 1)
	assert.Equal(t, "test-agent", visits.visits[0].UserAgent)
	assert.NotEmpty(t, visits.visits[0].IP)
	assert.False(t, visits.visits[0].VisitedAt.IsZero())
}

func TestVisitorLogger_FailureDoesNotBlock(t *testing.T) {
	visits := &visitLog{err: errors.New("disk full")}
	app := fiber.New()
	app.Use(VisitorLogger(visits, zap.NewNop()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequestLogger_RendersErrors(t *testing.T) {
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop()))
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/teapot", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
}
