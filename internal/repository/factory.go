package repository

import (
	"github.com/flexprice/cashier/internal/domain/account"
	"github.com/flexprice/cashier/internal/domain/subscription"
	"github.com/flexprice/cashier/internal/logger"
	"github.com/flexprice/cashier/internal/postgres"
	postgresRepo "github.com/flexprice/cashier/internal/repository/postgres"
)

func NewAccountRepository(db *postgres.DB, logger *logger.Logger) account.Repository {
	return postgresRepo.NewAccountRepository(db, logger)
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger)
}
