package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/services"
)

// PasswordResetHandler manages forgot-password endpoints.
type PasswordResetHandler struct {
	auth *services.AuthService
}

// NewPasswordResetHandler constructs a PasswordResetHandler.
func NewPasswordResetHandler(auth *services.AuthService) *PasswordResetHandler {
	return &PasswordResetHandler{auth: auth}
}

// SendOTP issues a reset code to a registered phone number.
func (h *PasswordResetHandler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	issued, err := h.auth.RequestPasswordReset(c.UserContext(), req.Phone)
	if err != nil {
		return err
	}
	return c.JSON(otpResponse(issued, "OTP sent for password reset. Use this OTP to reset your password."))
}

type resetPasswordRequest struct {
	Phone       string `json:"phone"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword verifies the code and sets the new password.
func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.auth.ResetPassword(c.UserContext(), req.Phone, req.OTP, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Password has been reset successfully."})
}
