package v1

import (
	"net/http"

	"github.com/flexprice/cashier/internal/api/dto"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/logger"
	"github.com/flexprice/cashier/internal/service"
	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	accounts  service.AccountService
	billing   service.BillingService
	reconcile service.ReconcileService
	log       *logger.Logger
}

func NewBillingHandler(
	accounts service.AccountService,
	billing service.BillingService,
	reconcile service.ReconcileService,
	log *logger.Logger,
) *BillingHandler {
	return &BillingHandler{
		accounts:  accounts,
		billing:   billing,
		reconcile: reconcile,
		log:       log,
	}
}

// @Summary Charge the card on file
// @Tags Billing
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param charge body dto.ChargeRequest true "Charge"
// @Success 201 {object} service.ChargeResult
// @Failure 202 {object} ierr.ErrorResponse
// @Failure 402 {object} ierr.ErrorResponse
// @Failure 504 {object} ierr.ErrorResponse
// @Router /accounts/{id}/charges [post]
func (h *BillingHandler) Charge(c *gin.Context) {
	var req dto.ChargeRequest
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

	resp, err := h.billing.Charge(ctx, acct, req.Amount, req.ToOptions())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Invoice the account for a one-off amount
// @Tags Billing
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param invoice body dto.InvoiceRequest true "Invoice"
// @Success 201 {object} service.ChargeResult
// @Failure 402 {object} ierr.ErrorResponse
// @Router /accounts/{id}/invoices [post]
func (h *BillingHandler) CreateInvoice(c *gin.Context) {
	var req dto.InvoiceRequest
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

	resp, err := h.billing.InvoiceFor(ctx, acct, req.Description, req.Amount, req.ToOptions())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Project the next invoice
// @Tags Billing
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} invoice.Invoice
// @Failure 404 {object} ierr.ErrorResponse
// @Router /accounts/{id}/invoices/upcoming [get]
func (h *BillingHandler) UpcomingInvoice(c *gin.Context) {
	ctx := c.Request.Context()
	acct, err := h.accounts.GetAccount(ctx, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	inv, err := h.billing.UpcomingInvoice(ctx, acct)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, inv)
}

// @Summary List past invoices for a plan
// @Tags Billing
// @Produce json
// @Param id path string true "Account ID"
// @Param plan query string true "Plan key"
// @Success 200 {object} dto.InvoiceListResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /accounts/{id}/invoices [get]
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	planKey := c.Query("plan")
	if planKey == "" {
		c.Error(ierr.NewError("plan query parameter is required").
			WithHint("Please specify the plan to list invoices for").
			Mark(ierr.ErrValidation))
		return
	}

	ctx := c.Request.Context()
	acct, err := h.accounts.GetAccount(ctx, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	invoices, err := h.billing.Invoices(ctx, acct, planKey)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.InvoiceListResponse{Items: invoices})
}

// @Summary Look up a gateway transaction
// @Tags Billing
// @Produce json
// @Param id path string true "Account ID"
// @Param transaction_id path string true "Transaction ID"
// @Success 200 {object} gateway.TransactionDetails
// @Failure 404 {object} ierr.ErrorResponse
// @Router /accounts/{id}/invoices/{transaction_id} [get]
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	details, err := h.billing.FindInvoiceOrFail(c.Request.Context(), c.Param("transaction_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// @Summary Wait for a held transaction to be approved or declined
// @Tags Billing
// @Produce json
// @Param id path string true "Account ID"
// @Param transaction_id path string true "Gateway transaction ID"
// @Success 200 {object} gateway.TransactionDetails
// @Failure 202 {object} ierr.ErrorResponse
// @Failure 402 {object} ierr.ErrorResponse
// @Router /accounts/{id}/invoices/{transaction_id}/await [post]
func (h *BillingHandler) AwaitInvoiceDecision(c *gin.Context) {
	transactionID := c.Param("transaction_id")
	details, err := h.reconcile.AwaitTransactionDecision(c.Request.Context(), transactionID)
	if err != nil {
		c.Error(err)
		return
	}

	h.log.Infow("held transaction decided",
		"account_id", c.Param("id"),
		"transaction_id", transactionID,
		"status", details.Status)
	c.JSON(http.StatusOK, details)
}
