package testutil

import (
	"context"

	"github.com/flexprice/cashier/internal/gateway"
	"github.com/stretchr/testify/mock"
)

var _ gateway.Client = (*MockGatewayClient)(nil)

// MockGatewayClient is a testify mock of the payment gateway
type MockGatewayClient struct {
	mock.Mock
}

func NewMockGatewayClient() *MockGatewayClient {
	return &MockGatewayClient{}
}

func (m *MockGatewayClient) CreateCustomerProfile(ctx context.Context, req gateway.CreateCustomerProfileRequest) (*gateway.CustomerProfile, error) {
	args := m.Called(ctx, req)
	if p, ok := args.Get(0).(*gateway.CustomerProfile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGatewayClient) UpdatePaymentProfile(ctx context.Context, req gateway.UpdatePaymentProfileRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockGatewayClient) DeleteCustomerProfile(ctx context.Context, customerProfileID string) error {
	args := m.Called(ctx, customerProfileID)
	return args.Error(0)
}

func (m *MockGatewayClient) CreateTransaction(ctx context.Context, req gateway.CreateTransactionRequest) (*gateway.Transaction, error) {
	args := m.Called(ctx, req)
	if tx, ok := args.Get(0).(*gateway.Transaction); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGatewayClient) GetTransaction(ctx context.Context, transactionID string) (*gateway.TransactionDetails, error) {
	args := m.Called(ctx, transactionID)
	if d, ok := args.Get(0).(*gateway.TransactionDetails); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGatewayClient) CreateRecurringSubscription(ctx context.Context, req gateway.CreateRecurringSubscriptionRequest) (*gateway.RecurringSubscriptionRef, error) {
	args := m.Called(ctx, req)
	if ref, ok := args.Get(0).(*gateway.RecurringSubscriptionRef); ok {
		return ref, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGatewayClient) CancelRecurringSubscription(ctx context.Context, subscriptionID string) error {
	args := m.Called(ctx, subscriptionID)
	return args.Error(0)
}

func (m *MockGatewayClient) GetRecurringSubscription(ctx context.Context, subscriptionID string) (*gateway.RecurringSubscription, error) {
	args := m.Called(ctx, subscriptionID)
	if r, ok := args.Get(0).(*gateway.RecurringSubscription); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
