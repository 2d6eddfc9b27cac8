package api

import (
	v1 "github.com/flexprice/cashier/internal/api/v1"
	"github.com/flexprice/cashier/internal/config"
	"github.com/flexprice/cashier/internal/logger"
	"github.com/flexprice/cashier/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Account      *v1.AccountHandler
	Billing      *v1.BillingHandler
	Subscription *v1.SubscriptionHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health.Health)

	// v1 routes
	v1Group := router.Group("/v1")
	v1Group.Use(middleware.AuthenticateMiddleware(cfg, logger))
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	accounts := router.Group("/accounts")
	{
		accounts.POST("", handlers.Account.CreateAccount)
		accounts.GET("/:id", handlers.Account.GetAccount)
		accounts.POST("/:id/customer", handlers.Account.CreateGatewayCustomer)
		accounts.DELETE("/:id/customer", handlers.Account.DeleteGatewayCustomer)
		accounts.PUT("/:id/card", handlers.Account.UpdateCard)
	}

	// Charges and invoices
	billing := accounts.Group("/:id")
	{
		billing.POST("/charges", handlers.Billing.Charge)
		billing.POST("/invoices", handlers.Billing.CreateInvoice)
		billing.GET("/invoices", handlers.Billing.ListInvoices)
		billing.GET("/invoices/upcoming", handlers.Billing.UpcomingInvoice)
		billing.GET("/invoices/:transaction_id", handlers.Billing.GetInvoice)
		billing.POST("/invoices/:transaction_id/await", handlers.Billing.AwaitInvoiceDecision)
	}

	subscriptions := accounts.Group("/:id/subscriptions")
	{
		subscriptions.POST("", handlers.Subscription.CreateSubscription)
		subscriptions.GET("/:name", handlers.Subscription.GetSubscription)
		subscriptions.POST("/:name/cancel", handlers.Subscription.CancelSubscription)
		subscriptions.POST("/:name/reconcile", handlers.Subscription.ReconcileSubscription)
	}
}
