package handlers

import (
	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/services"
)

const serverErrorMessage = "A server error occurred"

// ErrorHandler renders every failure as {"message": ...}.
func ErrorHandler(lg *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := classify(err)
		if status >= fiber.StatusInternalServerError {
			lg.Error("Request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		return c.Status(status).JSON(body)
	}
}

func classify(err error) (int, fiber.Map) {
	var (
		fiberErr   *fiber.Error
		svcErr     *services.Error
		transition *checkout.TransitionError
		missing    *checkout.MissingDetailsError
	)
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiber.Map{"message": fiberErr.Message}
	case errors.As(err, &svcErr):
		return serviceStatus(err), fiber.Map{"message": svcErr.Message}
	case errors.As(err, &transition):
		return fiber.StatusConflict, fiber.Map{"message": transition.Error()}
	case errors.As(err, &missing):
		return fiber.StatusBadRequest, fiber.Map{
			"message": "Please fill in all required delivery details.",
			"fields":  missing.Fields,
		}
	case errors.Is(err, checkout.ErrEmptyCart):
		return fiber.StatusBadRequest, fiber.Map{"message": "Your cart is empty."}
	case errors.Is(err, checkout.ErrInvalidPaymentMethod):
		return fiber.StatusBadRequest, fiber.Map{"message": "Unknown payment method."}
	default:
		return fiber.StatusInternalServerError, fiber.Map{"message": serverErrorMessage}
	}
}

func serviceStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrOrderNotFound):
		return fiber.StatusNotFound
	case services.KindOf(err) == services.KindInternal:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}
