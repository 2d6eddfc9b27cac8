package v1

import (
	"net/http"

	"github.com/flexprice/cashier/internal/api/dto"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/logger"
	"github.com/flexprice/cashier/internal/service"
	"github.com/flexprice/cashier/internal/types"
	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	service service.AccountService
	billing service.BillingService
	clock   types.Clock
	log     *logger.Logger
}

func NewAccountHandler(
	service service.AccountService,
	billing service.BillingService,
	clock types.Clock,
	log *logger.Logger,
) *AccountHandler {
	return &AccountHandler{
		service: service,
		billing: billing,
		clock:   clock,
		log:     log,
	}
}

// @Summary Create an account
// @Description Create a billable account, optionally on a generic trial
// @Tags Accounts
// @Accept json
// @Produce json
// @Param account body dto.CreateAccountRequest true "Account"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req dto.CreateAccountRequest
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
	now := h.clock.Now()
	acct, err := h.service.CreateAccount(ctx, req.ToAccount(ctx, now))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewAccountResponse(acct, now))
}

// @Summary Get an account
// @Tags Accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	acct, err := h.service.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAccountResponse(acct, h.clock.Now()))
}

// @Summary Make an account a gateway customer
// @Description Create the customer profile and first payment profile on the payment gateway
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param customer body dto.CreateGatewayCustomerRequest true "Billing location and card"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 402 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /accounts/{id}/customer [post]
func (h *AccountHandler) CreateGatewayCustomer(c *gin.Context) {
	var req dto.CreateGatewayCustomerRequest
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
	acct, err := h.service.GetAccount(ctx, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.billing.CreateAsGatewayCustomer(ctx, acct, req.Location, req.Card); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewAccountResponse(acct, h.clock.Now()))
}

// @Summary Delete the gateway customer
// @Tags Accounts
// @Param id path string true "Account ID"
// @Success 204
// @Failure 422 {object} ierr.ErrorResponse
// @Router /accounts/{id}/customer [delete]
func (h *AccountHandler) DeleteGatewayCustomer(c *gin.Context) {
	ctx := c.Request.Context()
	acct, err := h.service.GetAccount(ctx, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.billing.DeleteGatewayProfile(ctx, acct); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Replace the card on file
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param card body dto.UpdateCardRequest true "Card"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 422 {object} ierr.ErrorResponse
// @Router /accounts/{id}/card [put]
func (h *AccountHandler) UpdateCard(c *gin.Context) {
	var req dto.UpdateCardRequest
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
	acct, err := h.service.GetAccount(ctx, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.billing.UpdateCard(ctx, acct, req.Card); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAccountResponse(acct, h.clock.Now()))
}
