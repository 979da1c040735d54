package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	auth     *services.AuthService
	checkout *services.CheckoutService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *services.AuthService, checkout *services.CheckoutService) *AuthHandler {
	return &AuthHandler{auth: auth, checkout: checkout}
}

type sendOTPRequest struct {
	Phone string `json:"phone"`
}

// SendOTP issues a signup code for a phone number.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	issued, err := h.auth.RequestSignupOTP(c.UserContext(), req.Phone)
	if err != nil {
		return err
	}
	return c.JSON(otpResponse(issued, "OTP generated successfully. Use this OTP to verify."))
}

func otpResponse(issued *services.IssuedOTP, demoMessage string) fiber.Map {
	if issued.Code == "" {
		return fiber.Map{"message": "OTP sent successfully."}
	}
	return fiber.Map{"message": demoMessage, "otp": issued.Code}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

// Register creates a new user account after OTP verification.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	token, err := h.auth.Register(c.UserContext(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		OTP:      req.OTP,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"token": token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an existing user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	token, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"token": token})
}

// Logout discards the caller's cart and checkout. The token stays valid until
// it expires.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	if err := h.checkout.Logout(c.UserContext(), userID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Logged out."})
}
