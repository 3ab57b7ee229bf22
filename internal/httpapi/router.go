package httpapi

import (
	"time"

	"savora-be/internal/address"
	"savora-be/internal/cart"
	"savora-be/internal/catalog"
	"savora-be/internal/checkout"
	"savora-be/internal/logger"
	"savora-be/internal/metrics"
	"savora-be/internal/middleware"
	"savora-be/internal/order"
	"savora-be/internal/payment/webhook"
	"savora-be/internal/pricing"
	"savora-be/internal/realtime"
	"savora-be/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Users     user.Service
	Catalog   catalog.Service
	Carts     cart.Service
	Resolver  *catalog.Resolver
	Addresses address.Service
	Orders    order.Service

	Coordinator *checkout.Coordinator
	Webhook     *webhook.Handler
	Hub         *realtime.Hub

	PricingCfg pricing.Config
	Currency   string
}

// NewRouter wires all routes onto a gin engine.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestIDMiddleware())
	r.Use(logger.RequestLogger())
	r.Use(middleware.Auth())
	r.Use(middleware.RateLimit())
	r.Use(metrics.Middleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Guest-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authH := &authHandler{users: d.Users, carts: d.Carts}
	menuH := &menuHandler{catalog: d.Catalog}
	cartH := &cartHandler{carts: d.Carts, resolver: d.Resolver, pricingCfg: d.PricingCfg, currency: d.Currency}
	addrH := &addressHandler{addresses: d.Addresses}
	checkoutH := &checkoutHandler{
		orders:      d.Orders,
		carts:       d.Carts,
		addresses:   d.Addresses,
		coordinator: d.Coordinator,
	}
	orderH := &orderHandler{orders: d.Orders}

	api := r.Group("/api/v1")
	{
		api.POST("/auth/register", authH.Register)
		api.POST("/auth/login", authH.Login)

		api.GET("/menu/categories", menuH.Categories)
		api.GET("/menu/items", menuH.Items)
		api.GET("/menu/items/:id", menuH.Item)

		api.GET("/cart", cartH.View)
		api.POST("/cart/items", cartH.AddItem)
		api.PATCH("/cart/items/:id", cartH.UpdateItem)
		api.DELETE("/cart/items/:id", cartH.RemoveItem)
		api.DELETE("/cart", cartH.Clear)

		api.POST("/checkout/quote", checkoutH.Quote)
		api.POST("/checkout/place", checkoutH.Place)
		api.POST("/checkout/retry", checkoutH.Retry)
		api.GET("/checkout/session/:reference", checkoutH.Session)
		api.DELETE("/checkout/session/:reference", checkoutH.Release)

		authed := api.Group("", middleware.RequireAuth())
		{
			authed.POST("/cart/merge", cartH.Merge)

			authed.GET("/addresses", addrH.List)
			authed.POST("/addresses", addrH.Create)
			authed.PUT("/addresses/:id", addrH.Update)
			authed.DELETE("/addresses/:id", addrH.Delete)
			authed.POST("/addresses/:id/default", addrH.SetDefault)
			authed.GET("/addresses/:id/checkout-form", addrH.CheckoutForm)

			authed.GET("/orders", orderH.List)
			authed.GET("/orders/:id", orderH.Detail)

			admin := authed.Group("", middleware.RequireAdmin())
			admin.PATCH("/orders/:id/status", orderH.UpdateStatus)
		}
	}

	// Provider-facing endpoints live outside the versioned API.
	r.POST("/webhook/payment", d.Webhook.Handle)
	r.GET("/payment/return", checkoutH.Return)

	r.GET("/ws", func(c *gin.Context) {
		d.Hub.Serve(c.Writer, c.Request)
	})

	return r
}
