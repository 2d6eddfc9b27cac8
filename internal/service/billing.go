package service

import (
	"context"
	"time"

	"github.com/flexprice/cashier/internal/cache"
	"github.com/flexprice/cashier/internal/cardbrand"
	"github.com/flexprice/cashier/internal/domain/account"
	"github.com/flexprice/cashier/internal/domain/invoice"
	"github.com/flexprice/cashier/internal/domain/plan"
	"github.com/flexprice/cashier/internal/domain/subscription"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/gateway"
	"github.com/flexprice/cashier/internal/idempotency"
	"github.com/flexprice/cashier/internal/types"
	"github.com/flexprice/cashier/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ChargeOptions tunes a one-off charge
type ChargeOptions struct {
	// Currency defaults to the account's preferred currency, then billing.currency
	Currency    string
	Description string
	// IdempotencyKey makes the gateway invoice number stable across retries of
	// the same charge so the duplicate window can reject the second one
	IdempotencyKey string
}

// ChargeResult is an approved one-off charge
type ChargeResult struct {
	AuthCode      string          `json:"auth_code"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
	Currency      string          `json:"currency"`
	InvoiceNumber string          `json:"invoice_number"`
}

// BillingService is the billable side of an account: its gateway profile,
// one-off charges, invoice projections and subscription queries.
type BillingService interface {
	Charge(ctx context.Context, acct *account.Account, amount decimal.Decimal, opts ChargeOptions) (*ChargeResult, error)
	InvoiceFor(ctx context.Context, acct *account.Account, description string, amount decimal.Decimal, opts ChargeOptions) (*ChargeResult, error)
	UpcomingInvoice(ctx context.Context, acct *account.Account) (*invoice.Invoice, error)
	Invoices(ctx context.Context, acct *account.Account, planKey string) ([]*invoice.Invoice, error)
	FindInvoice(ctx context.Context, transactionID string) (*gateway.TransactionDetails, error)
	FindInvoiceOrFail(ctx context.Context, transactionID string) (*gateway.TransactionDetails, error)

	UpdateCard(ctx context.Context, acct *account.Account, card account.Card) error
	CreateAsGatewayCustomer(ctx context.Context, acct *account.Account, location account.Address, card account.Card) error
	DeleteGatewayProfile(ctx context.Context, acct *account.Account) error
	RecurringSubscription(ctx context.Context, gatewaySubscriptionID string) (*gateway.RecurringSubscription, error)

	Subscription(ctx context.Context, acct *account.Account, name string) (*subscription.Subscription, error)
	Subscribed(ctx context.Context, acct *account.Account, name, planKey string) (bool, error)
	SubscribedToPlan(ctx context.Context, acct *account.Account, plans []string, name string) (bool, error)
	OnPlan(ctx context.Context, acct *account.Account, planKey string) (bool, error)
	OnTrial(ctx context.Context, acct *account.Account, name, planKey string) (bool, error)
	OnGenericTrial(acct *account.Account) bool
	HasCardOnFile(acct *account.Account) bool
	HasGatewayID(acct *account.Account) bool

	NewSubscription(acct *account.Account, name, planKey string) *SubscriptionBuilder
}

type billingService struct {
	ServiceParams
}

func NewBillingService(params ServiceParams) BillingService {
	return &billingService{
		ServiceParams: params,
	}
}

func (s *billingService) Charge(ctx context.Context, acct *account.Account, amount decimal.Decimal, opts ChargeOptions) (*ChargeResult, error) {
	if !amount.IsPositive() {
		return nil, ierr.NewError("charge amount must be positive").
			WithHint("Charge amount must be greater than zero").
			WithReportableDetails(map[string]any{"amount": amount.String()}).
			Mark(ierr.ErrValidation)
	}
	if !acct.HasPaymentProfile() {
		return nil, errNotACustomer(acct)
	}

	total := types.ComposeAmount(amount, acct.TaxPercentage())
	currency := types.NormalizeCurrency(opts.Currency, acct.PreferredCurrency(s.Config.Billing.Currency))

	params := map[string]interface{}{
		"account_id": acct.ID,
		"amount":     types.FormatAmount(total),
		"currency":   currency,
	}
	if opts.IdempotencyKey != "" {
		params["key"] = opts.IdempotencyKey
	} else {
		params["at"] = s.now().UnixNano()
	}
	invoiceNumber := s.Idempotency.GenerateReference(idempotency.ScopeCharge, params)

	s.Logger.Infow("charging account",
		"account_id", acct.ID,
		"amount", types.FormatAmount(total),
		"currency", currency,
		"invoice_number", invoiceNumber,
		"card_last_four", acct.CardLastFour)

	tx, err := s.Gateway.CreateTransaction(ctx, gateway.CreateTransactionRequest{
		CustomerProfileID: acct.GatewayCustomerID,
		PaymentProfileID:  acct.GatewayPaymentProfileID,
		Amount:            total,
		Currency:          currency,
		Description:       opts.Description,
		InvoiceNumber:     invoiceNumber,
	})
	if err == nil {
		err = classifyTransaction(tx)
	}
	if err != nil {
		s.Logger.Errorw("charge failed",
			"account_id", acct.ID,
			"invoice_number", invoiceNumber,
			"error", err)
		s.Sentry.CaptureGatewayError(ctx, "charge", err)
		return nil, err
	}

	return &ChargeResult{
		AuthCode:      tx.AuthCode,
		TransactionID: tx.TransactionID,
		Amount:        total,
		Currency:      currency,
		InvoiceNumber: invoiceNumber,
	}, nil
}

// classifyTransaction turns a transaction the gateway accepted into an error
// unless it was approved
func classifyTransaction(tx *gateway.Transaction) error {
	switch {
	case tx == nil:
		return gateway.NoResponse("createTransaction")
	case tx.Approved():
		return nil
	case tx.ResponseCode == gateway.ResponseCodeHeldForReview:
		return gateway.HeldForReview(tx, "")
	default:
		return gateway.NewFailure(tx.ResponseCode, "transaction was not approved")
	}
}

func (s *billingService) InvoiceFor(ctx context.Context, acct *account.Account, description string, amount decimal.Decimal, opts ChargeOptions) (*ChargeResult, error) {
	if !acct.HasGatewayID() {
		return nil, errNotACustomer(acct)
	}
	opts.Description = description
	return s.Charge(ctx, acct, amount, opts)
}

func (s *billingService) UpcomingInvoice(ctx context.Context, acct *account.Account) (*invoice.Invoice, error) {
	subs, err := s.SubRepo.ListByOwner(ctx, acct.ID)
	if err != nil {
		return nil, err
	}
	sub := subscription.MostRecent(subs)
	if sub == nil {
		return nil, ierr.NewErrorf("account %s has no subscription", acct.ID).
			WithHint("Account has no subscription to invoice").
			Mark(ierr.ErrNotFound)
	}

	p, err := s.Plans.GetPlan(ctx, sub.PlanKey)
	if err != nil {
		return nil, err
	}

	loc := s.location()
	billingDate := types.NextBillingDate(sub.AnchorDay(loc), s.now(), p.Interval, loc)
	inv := s.projectInvoice(acct, sub, p, billingDate)
	inv.Projected = true
	return inv, nil
}

// Invoices projects one invoice per whole month elapsed since the most recent
// subscription on planKey was created
func (s *billingService) Invoices(ctx context.Context, acct *account.Account, planKey string) ([]*invoice.Invoice, error) {
	subs, err := s.SubRepo.ListByOwner(ctx, acct.ID)
	if err != nil {
		return nil, err
	}
	sub := subscription.MostRecent(lo.Filter(subs, func(sub *subscription.Subscription, _ int) bool {
		return sub.PlanKey == planKey
	}))
	if sub == nil {
		return nil, ierr.NewErrorf("account %s has no %s subscription", acct.ID, planKey).
			WithHintf("Account has no subscription on plan %s", planKey).
			Mark(ierr.ErrNotFound)
	}

	p, err := s.Plans.GetPlan(ctx, planKey)
	if err != nil {
		return nil, err
	}

	remote, err := s.RecurringSubscription(ctx, sub.GatewaySubscriptionID)
	if err != nil {
		return nil, err
	}

	start := sub.CreatedAt.In(s.location())
	months := types.WholeMonthsBetween(start, s.now())

	invoices := make([]*invoice.Invoice, 0, months)
	for i := 1; i <= months; i++ {
		inv := s.projectInvoice(acct, sub, p, types.AddClampedMonths(start, i))
		inv.Remote = remote
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func (s *billingService) projectInvoice(acct *account.Account, sub *subscription.Subscription, p *plan.Plan, billingDate time.Time) *invoice.Invoice {
	// the plan rate only applies to accounts without a tax percent of their own
	rate := types.TaxFraction(acct.TaxPercentage())
	tax := types.TaxAmount(p.Amount, acct.TaxPercentage())
	if acct.TaxPercentage() == 0 {
		rate = p.TaxMultiplierOrZero()
		tax = types.RoundAmount(p.Amount.Mul(rate))
	}

	return &invoice.Invoice{
		ID: s.Idempotency.GenerateReference(idempotency.ScopeInvoice, map[string]interface{}{
			"subscription_id": sub.ID,
			"billing_date":    types.FormatGatewayDate(billingDate),
		}),
		Subscription: sub,
		BillingDate:  billingDate,
		TaxPercent:   types.TaxPercentFromFraction(rate),
		Amount:       p.Amount,
		TaxAmount:    tax,
		Total:        p.Amount.Add(tax),
		Currency:     acct.PreferredCurrency(s.Config.Billing.Currency),
	}
}

func (s *billingService) FindInvoice(ctx context.Context, transactionID string) (*gateway.TransactionDetails, error) {
	key := cache.GenerateKey(cache.PrefixTransaction, transactionID)
	if cached, ok := s.Cache.Get(ctx, key); ok {
		if details, ok := cached.(*gateway.TransactionDetails); ok {
			return details, nil
		}
	}

	details, err := s.Gateway.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	// a held transaction is still going to change
	if !details.PendingReview() {
		s.Cache.Set(ctx, key, details, 0)
	}
	return details, nil
}

// FindInvoiceOrFail reports a transaction the gateway does not know as not found.
// Errors that say nothing about the transaction, such as timeouts, are returned as is.
func (s *billingService) FindInvoiceOrFail(ctx context.Context, transactionID string) (*gateway.TransactionDetails, error) {
	details, err := s.FindInvoice(ctx, transactionID)
	if err == nil {
		return details, nil
	}
	if ierr.IsGatewayFailure(err) {
		return nil, ierr.WithError(err).
			WithHintf("Invoice %s not found", transactionID).
			WithReportableDetails(map[string]any{"transaction_id": transactionID}).
			Mark(ierr.ErrNotFound)
	}
	return nil, err
}

func (s *billingService) UpdateCard(ctx context.Context, acct *account.Account, card account.Card) error {
	if !acct.HasPaymentProfile() {
		return errNotACustomer(acct)
	}
	if err := validator.ValidateRequest(card); err != nil {
		return err
	}

	err := s.Gateway.UpdatePaymentProfile(ctx, gateway.UpdatePaymentProfileRequest{
		CustomerProfileID: acct.GatewayCustomerID,
		PaymentProfileID:  acct.GatewayPaymentProfileID,
		CustomerType:      gateway.CustomerTypeIndividual,
		BillTo:            toGatewayAddress(acct.BillingAddress().WithDefaults()),
		Card:              toGatewayCard(card),
	})
	if err != nil {
		s.Logger.Errorw("failed to update card",
			"account_id", acct.ID,
			"card", card.String(),
			"error", err)
		return err
	}

	updated := *acct
	updated.CardBrand = s.CardBrand.Detect(card.Number)
	updated.CardLastFour = card.LastFour()
	updated.Touch(ctx, s.now())
	if err := s.AccountRepo.Update(ctx, &updated); err != nil {
		return err
	}
	*acct = updated

	s.Logger.Infow("updated card on file",
		"account_id", acct.ID,
		"card_brand", acct.CardBrand,
		"card_last_four", acct.CardLastFour)
	return nil
}

func (s *billingService) CreateAsGatewayCustomer(ctx context.Context, acct *account.Account, location account.Address, card account.Card) error {
	if acct.HasGatewayID() {
		return ierr.NewErrorf("account %s already has gateway profile %s", acct.ID, acct.GatewayCustomerID).
			WithHint("Account is already a payment gateway customer").
			WithReportableDetails(map[string]any{"account_id": acct.ID}).
			Mark(ierr.ErrInvalidOperation)
	}
	if err := validator.ValidateRequest(location); err != nil {
		return err
	}
	if err := validator.ValidateRequest(card); err != nil {
		return err
	}

	location = location.WithDefaults()
	billTo := location
	billTo.FirstName = acct.FirstName
	billTo.LastName = acct.LastName

	profile, err := s.Gateway.CreateCustomerProfile(ctx, gateway.CreateCustomerProfileRequest{
		MerchantCustomerID: acct.MerchantCustomerID(),
		Email:              acct.Email,
		CustomerType:       gateway.CustomerTypeIndividual,
		BillTo:             toGatewayAddress(billTo),
		Card:               toGatewayCard(card),
	})
	if err != nil {
		s.Logger.Errorw("failed to create gateway customer",
			"account_id", acct.ID,
			"card", card.String(),
			"error", err)
		return err
	}

	updated := *acct
	updated.GatewayCustomerID = profile.CustomerProfileID
	updated.GatewayPaymentProfileID = profile.PaymentProfileID
	updated.ApplyAddress(location)
	updated.CardBrand = s.CardBrand.Detect(card.Number)
	updated.CardLastFour = card.LastFour()
	updated.Touch(ctx, s.now())

	if err := s.AccountRepo.Update(ctx, &updated); err != nil {
		s.Logger.Errorw("gateway customer created but account could not be saved",
			"account_id", acct.ID,
			"customer_profile_id", profile.CustomerProfileID,
			"error", err)
		return err
	}
	*acct = updated

	s.Logger.Infow("created gateway customer",
		"account_id", acct.ID,
		"customer_profile_id", profile.CustomerProfileID)
	return nil
}

func (s *billingService) DeleteGatewayProfile(ctx context.Context, acct *account.Account) error {
	if !acct.HasGatewayID() {
		return errNotACustomer(acct)
	}

	if err := s.Gateway.DeleteCustomerProfile(ctx, acct.GatewayCustomerID); err != nil {
		s.Logger.Errorw("failed to delete gateway customer",
			"account_id", acct.ID,
			"customer_profile_id", acct.GatewayCustomerID,
			"error", err)
		return err
	}

	profileID := acct.GatewayCustomerID
	updated := *acct
	updated.ClearGatewayProfile()
	updated.Touch(ctx, s.now())
	if err := s.AccountRepo.Update(ctx, &updated); err != nil {
		return err
	}
	*acct = updated

	s.Logger.Infow("deleted gateway customer",
		"account_id", acct.ID,
		"customer_profile_id", profileID)
	return nil
}

func (s *billingService) RecurringSubscription(ctx context.Context, gatewaySubscriptionID string) (*gateway.RecurringSubscription, error) {
	return fetchRecurringSubscription(ctx, s.ServiceParams, gatewaySubscriptionID)
}

// fetchRecurringSubscription reads an ARB snapshot through the short-lived cache
func fetchRecurringSubscription(ctx context.Context, params ServiceParams, id string) (*gateway.RecurringSubscription, error) {
	key := cache.GenerateKey(cache.PrefixRecurringSubscription, id)
	if cached, ok := params.Cache.Get(ctx, key); ok {
		if remote, ok := cached.(*gateway.RecurringSubscription); ok {
			return remote, nil
		}
	}

	remote, err := params.Gateway.GetRecurringSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	params.Cache.Set(ctx, key, remote, 0)
	return remote, nil
}

func (s *billingService) Subscription(ctx context.Context, acct *account.Account, name string) (*subscription.Subscription, error) {
	return s.SubRepo.GetByOwnerAndName(ctx, acct.ID, lo.Ternary(name == "", subscription.DefaultName, name))
}

// lookup returns the subscription in the slot or nil when there is none
func (s *billingService) lookup(ctx context.Context, acct *account.Account, name string) (*subscription.Subscription, error) {
	sub, err := s.Subscription(ctx, acct, name)
	if ierr.IsNotFound(err) {
		return nil, nil
	}
	return sub, err
}

// Subscribed reports a valid subscription in the slot, on planKey when it is not empty
func (s *billingService) Subscribed(ctx context.Context, acct *account.Account, name, planKey string) (bool, error) {
	sub, err := s.lookup(ctx, acct, name)
	if err != nil || sub == nil {
		return false, err
	}
	return sub.Valid(s.now()) && (planKey == "" || sub.PlanKey == planKey), nil
}

func (s *billingService) SubscribedToPlan(ctx context.Context, acct *account.Account, plans []string, name string) (bool, error) {
	sub, err := s.lookup(ctx, acct, name)
	if err != nil || sub == nil {
		return false, err
	}
	return sub.Valid(s.now()) && lo.Contains(plans, sub.PlanKey), nil
}

// OnPlan reports any valid subscription on planKey, whatever its slot
func (s *billingService) OnPlan(ctx context.Context, acct *account.Account, planKey string) (bool, error) {
	subs, err := s.SubRepo.ListByOwner(ctx, acct.ID)
	if err != nil {
		return false, err
	}
	now := s.now()
	return lo.ContainsBy(subs, func(sub *subscription.Subscription) bool {
		return sub.PlanKey == planKey && sub.Valid(now)
	}), nil
}

// OnTrial checks the generic account trial when name is empty, the named
// subscription's trial otherwise
func (s *billingService) OnTrial(ctx context.Context, acct *account.Account, name, planKey string) (bool, error) {
	if name == "" {
		return s.OnGenericTrial(acct), nil
	}
	sub, err := s.lookup(ctx, acct, name)
	if err != nil || sub == nil {
		return false, err
	}
	return sub.OnTrial(s.now()) && (planKey == "" || sub.PlanKey == planKey), nil
}

func (s *billingService) OnGenericTrial(acct *account.Account) bool {
	return acct.OnGenericTrial(s.now())
}

func (s *billingService) HasCardOnFile(acct *account.Account) bool {
	return acct.HasCardOnFile()
}

func (s *billingService) HasGatewayID(acct *account.Account) bool {
	return acct.HasGatewayID()
}

func (s *billingService) NewSubscription(acct *account.Account, name, planKey string) *SubscriptionBuilder {
	return newSubscriptionBuilder(s.ServiceParams, acct, name, planKey)
}

func errNotACustomer(acct *account.Account) error {
	return ierr.NewErrorf("account %s is not a gateway customer", acct.ID).
		WithHint("Account is not a payment gateway customer, create the customer profile first").
		WithReportableDetails(map[string]any{"account_id": acct.ID}).
		Mark(ierr.ErrNotACustomer)
}

func toGatewayAddress(a account.Address) gateway.Address {
	return gateway.Address{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address:   a.Address,
		City:      a.City,
		State:     a.State,
		Zip:       a.Zip,
		Country:   a.Country,
	}
}

func toGatewayCard(c account.Card) gateway.Card {
	return gateway.Card{
		Number:         cardbrand.Normalize(c.Number),
		ExpirationDate: c.ExpirationDate,
		CardCode:       c.CardCode,
	}
}
