package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/handlers"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/routes"
	"github.com/example/storefront/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	lg, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger) error {
	db, err := database.Connect(cfg.DatabaseURL, lg.Named("db"))
	if err != nil {
		return errors.Wrap(err, "connect database")
	}
	defer func() { _ = database.Close(db) }()

	var sessionStore session.Store = session.NewMemoryStore()
	if cfg.Session.RedisURL != "" {
		client, err := session.NewRedisClient(ctx, cfg.Session.RedisURL)
		if err != nil {
			return errors.Wrap(err, "connect redis")
		}
		redisStore := session.NewRedisStore(client, cfg.Session.TTL)
		defer func() { _ = redisStore.Close() }()
		sessionStore = redisStore
		lg.Info("Session state kept in Redis", zap.Duration("ttl", cfg.Session.TTL))
	}

	scheduler := checkout.NewScheduler()
	defer scheduler.Stop()

	app := fiber.New(fiber.Config{
		AppName:      "Storefront API",
		ErrorHandler: handlers.ErrorHandler(lg),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.AdminKeyHeader,
	}))
	app.Use(middleware.RequestLogger(lg.Named("http")))

	checkoutService := routes.Register(app, routes.Dependencies{
		DB:        db,
		Config:    cfg,
		Sessions:  session.NewManager(sessionStore),
		Scheduler: scheduler,
		Logger:    lg,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Starting server", zap.String("port", cfg.AppPort))
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		lg.Info("Shutting down server", zap.Duration("timeout", cfg.ShutdownTimeout))
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		checkoutService.Wait()
		return nil
	})
	return g.Wait()
}
