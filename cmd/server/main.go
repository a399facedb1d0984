package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/auth"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/config"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/gateway"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/handler"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/logger"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/middleware"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	for _, w := range cfg.Warnings {
		zl.Warn("config", zap.String("warning", w))
	}

	// Connect to database
	repo, err := repository.New(cfg.Database.DSN())
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	// Redis backs the rate limiter when configured; otherwise limits are per process.
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancelPing()
		if err != nil {
			zl.Fatal("failed to connect to redis", zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
		}
		defer rdb.Close()
	}

	rateLimiter, err := middleware.NewLimiter(cfg.RateLimit.Rate, rdb)
	if err != nil {
		zl.Fatal("invalid rate limit", zap.String("rate", cfg.RateLimit.Rate), zap.Error(err))
	}

	gateways := gateway.FromConfig(cfg.Gateways)
	zl.Info("payment gateways configured", zap.Strings("providers", gateways.Names()))

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	// Create services
	notifySvc := service.NewNotificationService(repo, zl)
	referralSvc := service.NewReferralService(repo, zl)
	commissionSvc := service.NewCommissionService(repo, zl)
	userSvc := service.NewUserService(repo, referralSvc, tokens, cfg.Affiliate, zl)
	withdrawalSvc := service.NewWithdrawalService(repo, cfg.Affiliate, zl)
	withdrawalSvc.SetNotifier(notifySvc)
	affiliateSvc := service.NewAffiliateService(repo, userSvc, referralSvc, commissionSvc, withdrawalSvc, zl)
	paymentSvc := service.NewPaymentService(repo, gateways, commissionSvc, cfg.Gateways.CallbackBaseURL, zl)
	paymentSvc.SetNotifier(notifySvc)
	paymentSvc.SetTimeout(cfg.Gateways.PaymentTimeout)
	paymentSvc.SetWebhookSecret(cfg.Gateways.WebhookSecret)
	adminSvc := service.NewAdminService(repo, withdrawalSvc, zl)
	siteSvc := service.NewSiteService(repo, zl)

	// Create handlers
	h := handler.New(userSvc, affiliateSvc, withdrawalSvc, paymentSvc, siteSvc, notifySvc, zl)
	adminHandler := handler.NewAdminHandler(withdrawalSvc, paymentSvc, commissionSvc, userSvc, adminSvc, zl)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handler.ErrorHandler(zl),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handler.Routes(app, h, adminHandler, tokens, repo, middleware.RateLimit(rateLimiter, zl))

	// Background payment expiry is opt-in; admins can always sweep by hand.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Gateways.SweepInterval > 0 {
		go service.NewPaymentExpiryWorker(paymentSvc, cfg.Gateways.SweepInterval, zl).Start(ctx)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zl.Info("shutting down server")
		cancel()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zl.Error("shutdown failed", zap.Error(err))
		}
	}()

	// Start server
	zl.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("environment", cfg.Server.Environment))
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		zl.Fatal("failed to start server", zap.Error(err))
	}
}
