package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"horizon/internal/core/domain"
	"horizon/internal/core/ports"
)

// --- Mocks ---

// MockAggregatorGateway
type MockAggregatorGateway struct {
	mock.Mock
}

var _ ports.AggregatorGateway = (*MockAggregatorGateway)(nil)

func (m *MockAggregatorGateway) CreateLinkToken(ctx context.Context, params ports.LinkTokenParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}
func (m *MockAggregatorGateway) ExchangePublicToken(ctx context.Context, publicToken string) (*domain.ExchangeResult, error) {
	args := m.Called(ctx, publicToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeResult), args.Error(1)
}
func (m *MockAggregatorGateway) GetAccounts(ctx context.Context, accessToken string) ([]domain.AggregatorAccount, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AggregatorAccount), args.Error(1)
}
func (m *MockAggregatorGateway) CreateProcessorToken(ctx context.Context, accessToken, accountID, processor string) (string, error) {
	args := m.Called(ctx, accessToken, accountID, processor)
	return args.String(0), args.Error(1)
}

// MockPaymentRailGateway
type MockPaymentRailGateway struct {
	mock.Mock
}

var _ ports.PaymentRailGateway = (*MockPaymentRailGateway)(nil)

func (m *MockPaymentRailGateway) CreateCustomer(ctx context.Context, params ports.CustomerParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}
func (m *MockPaymentRailGateway) CreateFundingSource(ctx context.Context, customerID, processorToken, name string) (string, error) {
	args := m.Called(ctx, customerID, processorToken, name)
	return args.String(0), args.Error(1)
}
func (m *MockPaymentRailGateway) ListFundingSources(ctx context.Context, customerID string) ([]domain.FundingSource, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FundingSource), args.Error(1)
}

// MockIdentityGateway
type MockIdentityGateway struct {
	mock.Mock
}

var _ ports.IdentityGateway = (*MockIdentityGateway)(nil)

func (m *MockIdentityGateway) CreateAccount(ctx context.Context, email, password, name string) (*domain.Identity, error) {
	args := m.Called(ctx, email, password, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}
func (m *MockIdentityGateway) CreateSession(ctx context.Context, email, password string) (*domain.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}
func (m *MockIdentityGateway) GetIdentity(ctx context.Context, sessionToken string) (*domain.Identity, error) {
	args := m.Called(ctx, sessionToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}
func (m *MockIdentityGateway) DeleteSession(ctx context.Context, sessionToken string) error {
	args := m.Called(ctx, sessionToken)
	return args.Error(0)
}

// MockUserRepository
type MockUserRepository struct {
	mock.Mock
}

var _ ports.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) Create(ctx context.Context, user *domain.UserProfile) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepository) GetByUserID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

// MockBankRepository
type MockBankRepository struct {
	mock.Mock
}

var _ ports.BankRepository = (*MockBankRepository)(nil)

func (m *MockBankRepository) Create(ctx context.Context, bank *domain.LinkedBankAccount) error {
	args := m.Called(ctx, bank)
	return args.Error(0)
}
func (m *MockBankRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.LinkedBankAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LinkedBankAccount), args.Error(1)
}
func (m *MockBankRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LinkedBankAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkedBankAccount), args.Error(1)
}
func (m *MockBankRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.LinkedBankAccount, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkedBankAccount), args.Error(1)
}
func (m *MockBankRepository) GetByUserAndAccountID(ctx context.Context, userID, accountID string) (*domain.LinkedBankAccount, error) {
	args := m.Called(ctx, userID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkedBankAccount), args.Error(1)
}

// MockIDCodec
type MockIDCodec struct {
	mock.Mock
}

var _ ports.IDCodec = (*MockIDCodec)(nil)

func (m *MockIDCodec) EncryptID(id string) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}
func (m *MockIDCodec) DecryptID(sharable string) (string, error) {
	args := m.Called(sharable)
	return args.String(0), args.Error(1)
}

// MockBankListCache
type MockBankListCache struct {
	mock.Mock
}

var _ ports.BankListCache = (*MockBankListCache)(nil)

func (m *MockBankListCache) Get(userID string) ([]*domain.LinkedBankAccount, bool) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]*domain.LinkedBankAccount), args.Bool(1)
}
func (m *MockBankListCache) Generation(userID string) uint64 {
	args := m.Called(userID)
	return args.Get(0).(uint64)
}
func (m *MockBankListCache) Set(userID string, banks []*domain.LinkedBankAccount, generation uint64) {
	m.Called(userID, banks, generation)
}
func (m *MockBankListCache) Invalidate(userID string) {
	m.Called(userID)
}

// MockEventBus
type MockEventBus struct {
	mock.Mock
}

var _ ports.EventBus = (*MockEventBus)(nil)

func (m *MockEventBus) Publish(ctx context.Context, topic string, data interface{}) error {
	args := m.Called(ctx, topic, data)
	return args.Error(0)
}
func (m *MockEventBus) Subscribe(topic string, handler ports.EventHandler) {
	m.Called(topic, handler)
}
