package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flexprice/cashier/internal/api"
	v1 "github.com/flexprice/cashier/internal/api/v1"
	"github.com/flexprice/cashier/internal/cache"
	"github.com/flexprice/cashier/internal/cardbrand"
	"github.com/flexprice/cashier/internal/config"
	"github.com/flexprice/cashier/internal/integration/authorizenet"
	"github.com/flexprice/cashier/internal/logger"
	"github.com/flexprice/cashier/internal/postgres"
	"github.com/flexprice/cashier/internal/repository"
	"github.com/flexprice/cashier/internal/sentry"
	"github.com/flexprice/cashier/internal/service"
	"github.com/flexprice/cashier/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Clock and operational timezone
			types.NewSystemClock,
			provideBillingLocation,

			// Payment gateway
			authorizenet.NewClient,
			cardbrand.NewDetector,

			// Repositories
			repository.NewAccountRepository,
			repository.NewSubscriptionRepository,
			repository.NewConfigPlanProvider,
		),
		sentry.Module(),
		postgres.Module(),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewAccountService,
			service.NewBillingService,
			service.NewSubscriptionService,
			service.NewReconcileService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(
			startAPIServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideBillingLocation(cfg *config.Configuration) (*time.Location, error) {
	return types.LoadBillingLocation(cfg.Billing.Timezone)
}

func provideHandlers(
	logger *logger.Logger,
	db *postgres.DB,
	clock types.Clock,
	accountService service.AccountService,
	billingService service.BillingService,
	subscriptionService service.SubscriptionService,
	reconcileService service.ReconcileService,
) api.Handlers {
	return api.Handlers{
		Health:  v1.NewHealthHandler(db, logger),
		Account: v1.NewAccountHandler(accountService, billingService, clock, logger),
		Billing: v1.NewBillingHandler(accountService, billingService, reconcileService, logger),
		Subscription: v1.NewSubscriptionHandler(
			accountService,
			billingService,
			subscriptionService,
			reconcileService,
			clock,
			logger,
		),
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address, "mode", cfg.Deployment.Mode)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}
