package v1

import (
	"net/http"
	"strconv"

	"github.com/flexprice/cashier/internal/api/dto"
	"github.com/flexprice/cashier/internal/domain/subscription"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/logger"
	"github.com/flexprice/cashier/internal/service"
	"github.com/flexprice/cashier/internal/types"
	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	accounts      service.AccountService
	billing       service.BillingService
	subscriptions service.SubscriptionService
	reconcile     service.ReconcileService
	clock         types.Clock
	log           *logger.Logger
}

func NewSubscriptionHandler(
	accounts service.AccountService,
	billing service.BillingService,
	subscriptions service.SubscriptionService,
	reconcile service.ReconcileService,
	clock types.Clock,
	log *logger.Logger,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		accounts:      accounts,
		billing:       billing,
		subscriptions: subscriptions,
		reconcile:     reconcile,
		clock:         clock,
		log:           log,
	}
}

// @Summary Create a subscription
// @Description Open a recurring subscription on the payment gateway for the card on file
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param subscription body dto.CreateSubscriptionRequest true "Subscription"
// @Success 201 {object} dto.SubscriptionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 402 {object} ierr.ErrorResponse
// @Failure 422 {object} ierr.ErrorResponse
// @Router /accounts/{id}/subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	ctx := c.Request.Context()
	acct, err := h.accounts.GetAccount(ctx, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	sub, err := req.Create(ctx, h.billing, acct)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewSubscriptionResponse(sub, h.clock.Now()))
}

// @Summary Get a subscription by name
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Account ID"
// @Param name path string true "Subscription name"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /accounts/{id}/subscriptions/{name} [get]
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	sub, ok := h.resolve(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, dto.NewSubscriptionResponse(sub, h.clock.Now()))
}

// @Summary Cancel a subscription
// @Description Cancel at the end of the paid period, or immediately with now=true
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Account ID"
// @Param name path string true "Subscription name"
// @Param now query bool false "End immediately"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 402 {object} ierr.ErrorResponse
// @Router /accounts/{id}/subscriptions/{name}/cancel [post]
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	immediately := false
	if v := c.Query("now"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			c.Error(ierr.WithError(err).
				WithHint("now must be true or false").
				Mark(ierr.ErrValidation))
			return
		}
		immediately = parsed
	}

	sub, ok := h.resolve(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var err error
	if immediately {
		sub, err = h.subscriptions.CancelNow(ctx, sub.ID)
	} else {
		sub, err = h.subscriptions.Cancel(ctx, sub.ID)
	}
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSubscriptionResponse(sub, h.clock.Now()))
}

// @Summary Reconcile a cancellation with the gateway
// @Description Record the cancellation once the gateway reports the recurring subscription as terminated
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Account ID"
// @Param name path string true "Subscription name"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /accounts/{id}/subscriptions/{name}/reconcile [post]
func (h *SubscriptionHandler) ReconcileSubscription(c *gin.Context) {
	sub, ok := h.resolve(c)
	if !ok {
		return
	}

	sub, err := h.reconcile.ReconcileCancellation(c.Request.Context(), sub.ID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSubscriptionResponse(sub, h.clock.Now()))
}

// resolve loads the subscription in the named slot of the path account
func (h *SubscriptionHandler) resolve(c *gin.Context) (*subscription.Subscription, bool) {
	ctx := c.Request.Context()
	acct, err := h.accounts.GetAccount(ctx, c.Param("id"))
	if err != nil {
		c.Error(err)
		return nil, false
	}

	sub, err := h.billing.Subscription(ctx, acct, c.Param("name"))
	if err != nil {
		c.Error(err)
		return nil, false
	}
	return sub, true
}
