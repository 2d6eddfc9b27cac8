package service

import (
	"time"

	"github.com/flexprice/cashier/internal/cache"
	"github.com/flexprice/cashier/internal/cardbrand"
	"github.com/flexprice/cashier/internal/config"
	"github.com/flexprice/cashier/internal/domain/account"
	"github.com/flexprice/cashier/internal/domain/plan"
	"github.com/flexprice/cashier/internal/domain/subscription"
	"github.com/flexprice/cashier/internal/gateway"
	"github.com/flexprice/cashier/internal/idempotency"
	"github.com/flexprice/cashier/internal/logger"
	"github.com/flexprice/cashier/internal/sentry"
	"github.com/flexprice/cashier/internal/types"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Repositories
	AccountRepo account.Repository
	SubRepo     subscription.Repository
	Plans       plan.Provider

	Gateway     gateway.Client
	CardBrand   cardbrand.Detector
	Clock       types.Clock
	Location    *time.Location
	Cache       cache.Cache
	Idempotency *idempotency.Generator
	Sentry      *sentry.Service
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	accountRepo account.Repository,
	subRepo subscription.Repository,
	plans plan.Provider,
	gatewayClient gateway.Client,
	detector cardbrand.Detector,
	clock types.Clock,
	location *time.Location,
	cache cache.Cache,
	sentryService *sentry.Service,
) ServiceParams {
	return ServiceParams{
		Logger:      logger,
		Config:      config,
		AccountRepo: accountRepo,
		SubRepo:     subRepo,
		Plans:       plans,
		Gateway:     gatewayClient,
		CardBrand:   detector,
		Clock:       clock,
		Location:    location,
		Cache:       cache,
		Idempotency: idempotency.NewGenerator(),
		Sentry:      sentryService,
	}
}

// now is the current instant from the injected clock
func (p ServiceParams) now() time.Time {
	return p.Clock.Now()
}

// location is the operational timezone billing days are computed in
func (p ServiceParams) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}
