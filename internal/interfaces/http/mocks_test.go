package httpinterface_test

import (
	"context"

	"github.com/polling-network/polling-daemon/internal/core/application"
	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type mockEnrichmentService struct {
	mock.Mock
}

func (m *mockEnrichmentService) Enrich(
	ctx context.Context, address string, accountType domain.AccountType,
) (*domain.Account, error) {
	args := m.Called(ctx, address, accountType)

	var res *domain.Account
	if a := args.Get(0); a != nil {
		res = a.(*domain.Account)
	}
	return res, args.Error(1)
}

type mockHardwareConnector struct {
	mock.Mock
}

func (m *mockHardwareConnector) Connect(
	ctx context.Context, accountType domain.AccountType,
	opts application.ConnectOpts,
) ([]domain.HardwareAccount, error) {
	args := m.Called(ctx, accountType, opts)

	var res []domain.HardwareAccount
	if a := args.Get(0); a != nil {
		res = a.([]domain.HardwareAccount)
	}
	return res, args.Error(1)
}

func (m *mockHardwareConnector) ChooseAccount(
	ctx context.Context, address string, accountType domain.AccountType,
) (*domain.Account, error) {
	args := m.Called(ctx, address, accountType)

	var res *domain.Account
	if a := args.Get(0); a != nil {
		res = a.(*domain.Account)
	}
	return res, args.Error(1)
}

type mockPubSubService struct {
	mock.Mock
}

func (m *mockPubSubService) AddWebhook(
	ctx context.Context, webhook application.Webhook,
) (string, error) {
	args := m.Called(ctx, webhook)
	return args.String(0), args.Error(1)
}

func (m *mockPubSubService) RemoveWebhook(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockPubSubService) ListWebhooks(
	ctx context.Context, event string,
) ([]application.WebhookInfo, error) {
	args := m.Called(ctx, event)

	var res []application.WebhookInfo
	if a := args.Get(0); a != nil {
		res = a.([]application.WebhookInfo)
	}
	return res, args.Error(1)
}

func (m *mockPubSubService) Start(*application.Store) {}

func (m *mockPubSubService) Stop() {}
