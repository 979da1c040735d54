package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/models"
)

// VisitorRecorder stores one visit.
type VisitorRecorder interface {
	Record(ctx context.Context, v *models.Visitor) error
}

// VisitorLogger records every request before handling it. A failed insert is
// logged and never fails the request.
func VisitorLogger(visits VisitorRecorder, lg *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if forwarded := c.IPs(); len(forwarded) > 0 {
			ip = forwarded[0]
		}
		v := &models.Visitor{
			IP:        ip,
			UserAgent: c.Get(fiber.HeaderUserAgent),
			VisitedAt: time.Now().UTC(),
		}
		if err := visits.Record(c.UserContext(), v); err != nil {
			lg.Warn("Failed to record visitor", zap.String("ip", v.IP), zap.Error(err))
		}
		return c.Next()
	}
}
