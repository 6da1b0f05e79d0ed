package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-commerce/internal/config"
	"github.com/iliyamo/conference-commerce/internal/database"
	"github.com/iliyamo/conference-commerce/internal/gateway"
	"github.com/iliyamo/conference-commerce/internal/handler"
	"github.com/iliyamo/conference-commerce/internal/middleware"
	"github.com/iliyamo/conference-commerce/internal/queue"
	"github.com/iliyamo/conference-commerce/internal/repository"
	"github.com/iliyamo/conference-commerce/internal/router"
	"github.com/iliyamo/conference-commerce/internal/service"
)

func main() {
	// .env is a development convenience; in production the variables
	// come from the environment and the file is simply absent.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("database: %v", err)
	}
	cancel()

	// Redis backs the rate limiter and the catalog response cache.
	// A nil client disables both; the API works without it.
	rdb := config.NewRedisClient()

	// Repositories.
	inventoryRepo := repository.NewInventoryRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)
	orderRepo := repository.NewOrderRepo(db, inventoryRepo)
	seatRepo := repository.NewSeatRepo(db)
	walletRepo := repository.NewWalletRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)

	// Payment gateways.  Only providers with credentials configured
	// are registered; an unconfigured provider answers 404.
	gateways := map[string]gateway.Gateway{}
	if cfg.CyberSource.Enabled() {
		gateways["cybersource"] = &gateway.CyberSource{
			ProfileID: cfg.CyberSource.ProfileID,
			AccessKey: cfg.CyberSource.AccessKey,
			SecretKey: cfg.CyberSource.SecretKey,
			ActionURL: cfg.CyberSource.ActionURL,
			Currency:  cfg.CyberSource.Currency,
		}
	}
	if cfg.PayHere.Enabled() {
		gateways["payhere"] = &gateway.PayHere{
			MerchantID: cfg.PayHere.MerchantID,
			Secret:     cfg.PayHere.Secret,
			ActionURL:  cfg.PayHere.ActionURL,
			ReturnURL:  cfg.PayHere.ReturnURL,
			CancelURL:  cfg.PayHere.CancelURL,
			NotifyURL:  cfg.PayHere.NotifyURL,
			Currency:   cfg.PayHere.Currency,
		}
	}
	if len(gateways) == 0 {
		log.Println("no payment gateway configured; checkout and webhooks are inert")
	}

	// Services.
	events := queue.NewPublisher(cfg.AMQPURL)
	orderSvc := service.NewOrderService(catalogRepo, orderRepo)
	seatSvc := service.NewSeatService(seatRepo, cfg.BanquetTables)
	walletSvc := service.NewWalletService(walletRepo, orderRepo)
	checkoutSvc := service.NewCheckoutService(gateways, orderRepo)
	reconciler := service.NewReconciler(gateways, paymentRepo, orderRepo, walletRepo, events)

	// Background consumers append settled payments and anomalies to
	// their audit logs.  They reconnect on their own; a missing
	// broker only disables the audit trail.
	if cfg.AMQPURL != "" {
		if err := queue.StartOrderPaidConsumer(cfg.AMQPURL); err != nil {
			log.Printf("queue: order paid consumer: %v", err)
		}
		if err := queue.StartAnomalyConsumer(cfg.AMQPURL); err != nil {
			log.Printf("queue: anomaly consumer: %v", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterCatalog(e, handler.NewCatalogHandler(catalogRepo), cache)
	webhookHandler := handler.NewWebhookHandler(reconciler)
	router.RegisterWebhooks(e, webhookHandler, limiter)
	router.RegisterCommerce(e, router.Commerce{
		Orders:   handler.NewOrderHandler(orderSvc, walletSvc),
		Seats:    handler.NewSeatHandler(seatSvc),
		Wallet:   handler.NewWalletHandler(walletSvc),
		Checkout: handler.NewCheckoutHandler(checkoutSvc),
		Webhooks: webhookHandler,
	}, cfg.JWTSecret, limiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
