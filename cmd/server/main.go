package main

import (
	"context"
	"os/signal"
	"syscall"

	"savora-be/internal/address"
	"savora-be/internal/cart"
	"savora-be/internal/catalog"
	"savora-be/internal/checkout"
	"savora-be/internal/config"
	"savora-be/internal/db"
	"savora-be/internal/discount"
	"savora-be/internal/httpapi"
	"savora-be/internal/logger"
	"savora-be/internal/notify"
	"savora-be/internal/order"
	"savora-be/internal/payment"
	"savora-be/internal/payment/webhook"
	"savora-be/internal/pricing"
	"savora-be/internal/realtime"
	"savora-be/internal/user"

	"go.uber.org/zap"
)

const resolverCacheSize = 1024

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	pricingCfg := pricing.Config{
		DeliveryFee:           cfg.DeliveryFee,
		FreeDeliveryThreshold: cfg.FreeDeliveryThreshold,
		TaxRatePercent:        cfg.TaxRatePercent,
	}

	catalogRepo := catalog.NewRepository(database)
	catalogSvc := catalog.NewService(catalogRepo)
	resolver := catalog.NewResolver(catalogRepo, resolverCacheSize)

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo)

	cartRepo := cart.NewRepository(database)
	cartSvc := cart.NewService(cartRepo, catalogRepo)

	addressRepo := address.NewRepository(database)
	addressSvc := address.NewService(addressRepo)

	discountRepo := discount.NewRepository(database)
	discountSvc := discount.NewService(discountRepo)

	paymentRepo := payment.NewRepository(database)
	gateway := payment.NewHTTPGateway(cfg.PaymentSecretKey, cfg.PaymentCallbackToken)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(
		orderRepo, cartSvc, resolver, discountSvc,
		paymentRepo, gateway, pricingCfg, cfg.Currency,
	)

	notifier := notify.NewHTTPNotifier(cfg.NotifierURL, cfg.NotifierKey)
	coordinator := checkout.NewCoordinator(orderSvc, cartSvc, paymentRepo, gateway, notifier, cfg.Currency)
	webhookHandler := webhook.NewHandler(coordinator, gateway)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	feed := realtime.NewFeed(db.DSN(cfg))
	feed.OnEvent(func(ev realtime.Event) {
		if ref, ok := ev.ProductRef(); ok {
			resolver.Invalidate(ref)
		}
	})
	feed.OnReset(resolver.InvalidateAll)
	hub := realtime.NewHub(feed, func(reference string) bool {
		s, ok := coordinator.Session(reference)
		return ok && s.RealtimeSuspended()
	})
	go func() {
		if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
			logger.L().Error("realtime feed stopped", zap.Error(err))
		}
	}()

	router := httpapi.NewRouter(httpapi.Deps{
		Users:       userSvc,
		Catalog:     catalogSvc,
		Carts:       cartSvc,
		Resolver:    resolver,
		Addresses:   addressSvc,
		Orders:      orderSvc,
		Coordinator: coordinator,
		Webhook:     webhookHandler,
		Hub:         hub,
		PricingCfg:  pricingCfg,
		Currency:    cfg.Currency,
	})

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}

	logger.L().Info("server starting", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.L().Fatal("server exited", zap.Error(err))
	}
}
