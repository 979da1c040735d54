package routes

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/handlers"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/session"
	"github.com/example/storefront/internal/store"
)

// Dependencies are the long-lived components the routes are built from.
type Dependencies struct {
	DB        *gorm.DB
	Config    *config.Config
	Sessions  *session.Manager
	Scheduler *checkout.Scheduler
	Logger    *zap.Logger
}

// Register wires up all HTTP routes. The returned service owns in-flight
// order notifications and should be drained on shutdown.
func Register(app *fiber.App, deps Dependencies) *services.CheckoutService {
	cfg, lg := deps.Config, deps.Logger

	users := store.NewUsers(deps.DB)
	otps := store.NewOTPs(deps.DB)
	visitors := store.NewVisitors(deps.DB)
	orders := store.NewOrders(deps.DB)

	var (
		telegramService *services.TelegramService
		notifier        services.OrderNotifier
	)
	if cfg.Telegram.Enabled() {
		telegramService = services.NewTelegramService(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID, "", lg.Named("telegram"))
		notifier = telegramService
	}

	otpService := services.NewOTPService(otps, codeSender(cfg.OTP, telegramService, lg.Named("otp")), cfg.OTP.TTL, cfg.OTP.DemoMode, lg.Named("otp"))
	authService := services.NewAuthService(deps.DB, users, otps, otpService, services.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
	}, lg.Named("auth"))
	checkoutService := services.NewCheckoutService(deps.Sessions, orders, deps.Scheduler, notifier, services.CheckoutConfig{
		Pricing:    checkout.NewPricing(cfg.Checkout.FirstOrderDiscount),
		ClearDelay: cfg.Checkout.ClearDelay,
	}, lg.Named("checkout"))

	authHandler := handlers.NewAuthHandler(authService, checkoutService)
	resetHandler := handlers.NewPasswordResetHandler(authService)
	adminHandler := handlers.NewAdminHandler(authService, visitors)
	cartHandler := handlers.NewCartHandler(checkoutService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	orderHandler := handlers.NewOrderHandler(checkoutService)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	app.Use(middleware.VisitorLogger(visitors, lg.Named("visitors")))

	api := app.Group("/api")
	api.Get("/health", healthHandler.Health)

	// Auth routes
	api.Post("/send-otp", authHandler.SendOTP)
	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)

	forgot := api.Group("/forgot-password")
	forgot.Post("/send-otp", resetHandler.SendOTP)
	forgot.Post("/reset", resetHandler.ResetPassword)

	// Admin reads
	adminOnly := middleware.AdminKeyMiddleware(cfg.AdminAPIKey)
	api.Get("/users", adminOnly, adminHandler.ListUsers)
	api.Get("/visitors", adminOnly, adminHandler.ListVisitors)

	// Protected routes, registered last: the group middleware covers every
	// /api path that follows.
	protected := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret))
	protected.Post("/logout", authHandler.Logout)

	protected.Get("/cart", cartHandler.GetCart)
	protected.Delete("/cart", cartHandler.ClearCart)
	protected.Post("/cart/items", cartHandler.AddItem)
	protected.Put("/cart/items/:id", cartHandler.UpdateItem)
	protected.Delete("/cart/items/:id", cartHandler.RemoveItem)

	protected.Get("/checkout", checkoutHandler.Summary)
	protected.Post("/checkout/proceed", checkoutHandler.Proceed)
	protected.Post("/checkout/details", checkoutHandler.SubmitDetails)
	protected.Post("/checkout/back", checkoutHandler.Back)
	protected.Post("/checkout/place-order", checkoutHandler.PlaceOrder)
	protected.Post("/checkout/acknowledge-discount", checkoutHandler.AcknowledgeDiscount)
	protected.Post("/checkout/restart", checkoutHandler.Restart)

	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)

	return checkoutService
}

// codeSender picks the OTP delivery channel. The Telegram relay puts raw codes
// in the operator chat, so it needs RelayTelegram and is never used in demo mode.
func codeSender(cfg config.OTPConfig, tg *services.TelegramService, lg *zap.Logger) services.CodeSender {
	if tg != nil && cfg.RelayTelegram && !cfg.DemoMode {
		return tg
	}
	return services.NewLogSender(lg)
}
