package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockmaster/internal/models"
	"stockmaster/internal/realtime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) GetByCompany(ctx context.Context, companyID string) (*models.Subscription, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) Activate(ctx context.Context, companyID string, plan models.PlanType, endDate *time.Time) error {
	args := m.Called(ctx, companyID, plan, endDate)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) SetUnlockPIN(ctx context.Context, companyID string, pin *string) error {
	args := m.Called(ctx, companyID, pin)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) ListPendingClaims(ctx context.Context) ([]*models.Subscription, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.Subscription, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ListByCompany(ctx context.Context, companyID string) ([]*models.User, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateStatus(ctx context.Context, companyID string, id uuid.UUID, status models.UserStatus) error {
	args := m.Called(ctx, companyID, id, status)
	return args.Error(0)
}

func (m *MockUserRepository) SetManagersActive(ctx context.Context, companyID string) error {
	args := m.Called(ctx, companyID)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

type MockSupportRepository struct {
	mock.Mock
}

func (m *MockSupportRepository) Create(ctx context.Context, ticket *models.SupportTicket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockSupportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SupportTicket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupportTicket), args.Error(1)
}

func (m *MockSupportRepository) ListByCompany(ctx context.Context, companyID string) ([]*models.SupportTicket, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]*models.SupportTicket), args.Error(1)
}

func (m *MockSupportRepository) ListAll(ctx context.Context, limit, offset int) ([]*models.SupportTicket, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.SupportTicket), args.Error(1)
}

func (m *MockSupportRepository) ListOpenClaims(ctx context.Context) ([]*models.SupportTicket, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.SupportTicket), args.Error(1)
}

func (m *MockSupportRepository) Resolve(ctx context.Context, id uuid.UUID, adminReply *string) error {
	args := m.Called(ctx, id, adminReply)
	return args.Error(0)
}

type MockActivityLogsRepository struct {
	mock.Mock
}

func (m *MockActivityLogsRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockActivityLogsRepository) ListByCompany(ctx context.Context, companyID string, limit int) ([]*models.ActivityLog, error) {
	args := m.Called(ctx, companyID, limit)
	return args.Get(0).([]*models.ActivityLog), args.Error(1)
}

func (m *MockActivityLogsRepository) TrimOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetPricing(ctx context.Context) (*models.PricingConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PricingConfig), args.Error(1)
}

func (m *MockCacheService) SetPricing(ctx context.Context, pricing *models.PricingConfig, ttl time.Duration) error {
	args := m.Called(ctx, pricing, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidatePricing(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCacheService) GetSessionSnapshot(ctx context.Context, userID string, dst interface{}) (bool, error) {
	args := m.Called(ctx, userID, dst)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) SetSessionSnapshot(ctx context.Context, userID string, snapshot interface{}, ttl time.Duration) error {
	args := m.Called(ctx, userID, snapshot, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteSessionSnapshot(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateCompany(ctx context.Context, companyID string) error {
	args := m.Called(ctx, companyID)
	return args.Error(0)
}

func (m *MockCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockFeed struct {
	mock.Mock
}

func (m *MockFeed) Publish(ctx context.Context, table, companyID, action string) {
	m.Called(ctx, table, companyID, action)
}

func (m *MockFeed) Subscribe(ctx context.Context, companyID string, tables ...string) (<-chan realtime.Event, func()) {
	args := m.Called(ctx, companyID, tables)
	return args.Get(0).(<-chan realtime.Event), args.Get(1).(func())
}

type SubscriptionServiceTestSuite struct {
	suite.Suite
	subRepo      *MockSubscriptionRepository
	userRepo     *MockUserRepository
	supportRepo  *MockSupportRepository
	activityRepo *MockActivityLogsRepository
	cacheSvc     *MockCacheService
	feed         *MockFeed
	service      SubscriptionService

	user *models.User
}

func (suite *SubscriptionServiceTestSuite) SetupTest() {
	suite.subRepo = &MockSubscriptionRepository{}
	suite.userRepo = &MockUserRepository{}
	suite.supportRepo = &MockSupportRepository{}
	suite.activityRepo = &MockActivityLogsRepository{}
	suite.cacheSvc = &MockCacheService{}
	suite.feed = &MockFeed{}
	suite.service = NewSubscriptionService(
		suite.subRepo,
		suite.userRepo,
		suite.supportRepo,
		suite.activityRepo,
		NewEntitlementEvaluator(nil),
		suite.cacheSvc,
		suite.feed,
	)

	suite.user = &models.User{
		ID:        uuid.New(),
		CompanyID: "SM-TEST01",
		Name:      "Alice Manager",
		Email:     "alice@example.com",
		Role:      models.RoleManager,
		Status:    models.StatusActive,
	}

	suite.subRepo.Test(suite.T())
	suite.supportRepo.Test(suite.T())
}

func (suite *SubscriptionServiceTestSuite) TearDownTest() {
	suite.subRepo.AssertExpectations(suite.T())
	suite.userRepo.AssertExpectations(suite.T())
	suite.supportRepo.AssertExpectations(suite.T())
	suite.activityRepo.AssertExpectations(suite.T())
	suite.cacheSvc.AssertExpectations(suite.T())
	suite.feed.AssertExpectations(suite.T())
}

func TestSubscriptionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceTestSuite))
}

func (suite *SubscriptionServiceTestSuite) allowAuxiliaryWrites() {
	suite.cacheSvc.On("InvalidateCompany", mock.Anything, suite.user.CompanyID).Return(nil).Maybe()
	suite.feed.On("Publish", mock.Anything, mock.Anything, suite.user.CompanyID, mock.Anything).Maybe()
}

func (suite *SubscriptionServiceTestSuite) TestStartFree() {
	ctx := context.Background()
	suite.allowAuxiliaryWrites()

	suite.subRepo.On("Upsert", ctx, mock.AnythingOfType("*models.Subscription")).Return(nil).Run(func(args mock.Arguments) {
		sub := args.Get(1).(*models.Subscription)
		assert.Equal(suite.T(), suite.user.CompanyID, sub.CompanyID)
		assert.Equal(suite.T(), models.PlanFree, sub.Plan)
		assert.True(suite.T(), sub.IsActive)
		assert.Nil(suite.T(), sub.EndDate)
	})
	suite.userRepo.On("SetManagersActive", ctx, suite.user.CompanyID).Return(nil)

	err := suite.service.StartFree(ctx, suite.user)
	assert.NoError(suite.T(), err)
}

func (suite *SubscriptionServiceTestSuite) TestSubmitClaim_UpsertsInactiveAndFilesTicket() {
	ctx := context.Background()
	suite.feed.On("Publish", mock.Anything, mock.Anything, suite.user.CompanyID, mock.Anything).Maybe()

	suite.subRepo.On("Upsert", ctx, mock.AnythingOfType("*models.Subscription")).Return(nil).Run(func(args mock.Arguments) {
		sub := args.Get(1).(*models.Subscription)
		assert.Equal(suite.T(), models.PlanGrowth, sub.Plan)
		assert.False(suite.T(), sub.IsActive)
		if assert.NotNil(suite.T(), sub.PayerPhone) {
			assert.Equal(suite.T(), "0788123456", *sub.PayerPhone)
		}
		if assert.NotNil(suite.T(), sub.PayerName) {
			assert.Equal(suite.T(), suite.user.Name, *sub.PayerName)
		}
	})
	suite.supportRepo.On("Create", ctx, mock.AnythingOfType("*models.SupportTicket")).Return(nil).Run(func(args mock.Arguments) {
		ticket := args.Get(1).(*models.SupportTicket)
		assert.Equal(suite.T(), models.ClaimSubject, ticket.Subject)
		assert.Equal(suite.T(), models.TicketOpen, ticket.Status)
		assert.Contains(suite.T(), ticket.Message, "GROWTH Plan Activation (monthly)")
		assert.Contains(suite.T(), ticket.Message, "0788123456")
	})

	err := suite.service.SubmitClaim(ctx, suite.user, "Alice's Shop", models.PlanGrowth, models.CycleMonthly, "0788123456")
	assert.NoError(suite.T(), err)
}

func (suite *SubscriptionServiceTestSuite) TestSubmitClaim_RejectsFreePlan() {
	err := suite.service.SubmitClaim(context.Background(), suite.user, "Alice's Shop", models.PlanFree, models.CycleMonthly, "0788123456")
	assert.ErrorIs(suite.T(), err, ErrInvalidPlan)
}

func (suite *SubscriptionServiceTestSuite) TestApproveClaim_ActivatesClaimedPlan() {
	ctx := context.Background()
	suite.allowAuxiliaryWrites()
	ticketID := uuid.New()

	suite.supportRepo.On("GetByID", ctx, ticketID).Return(&models.SupportTicket{
		ID:        ticketID,
		CompanyID: suite.user.CompanyID,
		Subject:   models.ClaimSubject,
		Status:    models.TicketOpen,
	}, nil)
	suite.supportRepo.On("Resolve", ctx, ticketID, (*string)(nil)).Return(nil)
	suite.subRepo.On("GetByCompany", ctx, suite.user.CompanyID).Return(&models.Subscription{
		CompanyID: suite.user.CompanyID,
		Plan:      models.PlanPro,
		IsActive:  false,
	}, nil)
	suite.subRepo.On("Activate", ctx, suite.user.CompanyID, models.PlanPro, mock.AnythingOfType("*time.Time")).Return(nil).Run(func(args mock.Arguments) {
		endDate := args.Get(3).(*time.Time)
		if assert.NotNil(suite.T(), endDate) {
			expected := time.Now().AddDate(0, 1, 0)
			assert.WithinDuration(suite.T(), expected, *endDate, time.Minute)
		}
	})
	suite.userRepo.On("SetManagersActive", ctx, suite.user.CompanyID).Return(nil)

	err := suite.service.ApproveClaim(ctx, ticketID)
	assert.NoError(suite.T(), err)
}

func (suite *SubscriptionServiceTestSuite) TestApproveClaim_RejectsResolvedTicket() {
	ctx := context.Background()
	ticketID := uuid.New()

	suite.supportRepo.On("GetByID", ctx, ticketID).Return(&models.SupportTicket{
		ID:        ticketID,
		CompanyID: suite.user.CompanyID,
		Subject:   models.ClaimSubject,
		Status:    models.TicketResolved,
	}, nil)

	err := suite.service.ApproveClaim(ctx, ticketID)
	assert.ErrorIs(suite.T(), err, ErrClaimResolved)
}

func (suite *SubscriptionServiceTestSuite) TestApproveClaim_RejectsOrdinaryTicket() {
	ctx := context.Background()
	ticketID := uuid.New()

	suite.supportRepo.On("GetByID", ctx, ticketID).Return(&models.SupportTicket{
		ID:        ticketID,
		CompanyID: suite.user.CompanyID,
		Subject:   "Printer keeps jamming",
		Status:    models.TicketOpen,
	}, nil)

	err := suite.service.ApproveClaim(ctx, ticketID)
	assert.ErrorIs(suite.T(), err, ErrNotAClaim)
}

func (suite *SubscriptionServiceTestSuite) TestDenyClaim_DefaultReplyLeavesSubscriptionAlone() {
	ctx := context.Background()
	ticketID := uuid.New()
	suite.feed.On("Publish", mock.Anything, mock.Anything, suite.user.CompanyID, mock.Anything).Maybe()

	suite.supportRepo.On("GetByID", ctx, ticketID).Return(&models.SupportTicket{
		ID:        ticketID,
		CompanyID: suite.user.CompanyID,
		Subject:   models.ClaimSubject,
		Status:    models.TicketOpen,
	}, nil)
	suite.supportRepo.On("Resolve", ctx, ticketID, mock.AnythingOfType("*string")).Return(nil).Run(func(args mock.Arguments) {
		reply := args.Get(2).(*string)
		if assert.NotNil(suite.T(), reply) {
			assert.Equal(suite.T(), "Payment claim denied. Please verify your transaction details.", *reply)
		}
	})

	err := suite.service.DenyClaim(ctx, ticketID, "")
	assert.NoError(suite.T(), err)
	// No Activate or Upsert expectations: denial must not touch the row.
}

func (suite *SubscriptionServiceTestSuite) TestVerifyPIN_CorrectPINActivates() {
	ctx := context.Background()
	suite.allowAuxiliaryWrites()
	pin := "123456"

	suite.subRepo.On("GetByCompany", ctx, suite.user.CompanyID).Return(&models.Subscription{
		CompanyID: suite.user.CompanyID,
		Plan:      models.PlanGrowth,
		IsActive:  false,
		UnlockPIN: &pin,
	}, nil)
	suite.subRepo.On("Activate", ctx, suite.user.CompanyID, models.PlanGrowth, mock.AnythingOfType("*time.Time")).Return(nil)
	suite.userRepo.On("SetManagersActive", ctx, suite.user.CompanyID).Return(nil)
	suite.activityRepo.On("Create", ctx, mock.AnythingOfType("*models.ActivityLog")).Return(nil).Run(func(args mock.Arguments) {
		entry := args.Get(1).(*models.ActivityLog)
		assert.Equal(suite.T(), "PIN Security Override", entry.Action)
		assert.Equal(suite.T(), models.LogSuccess, entry.Type)
	})

	err := suite.service.VerifyPIN(ctx, suite.user, pin)
	assert.NoError(suite.T(), err)
}

func (suite *SubscriptionServiceTestSuite) TestVerifyPIN_WrongPINMutatesNothing() {
	ctx := context.Background()
	pin := "123456"

	suite.subRepo.On("GetByCompany", ctx, suite.user.CompanyID).Return(&models.Subscription{
		CompanyID: suite.user.CompanyID,
		Plan:      models.PlanGrowth,
		IsActive:  false,
		UnlockPIN: &pin,
	}, nil)

	err := suite.service.VerifyPIN(ctx, suite.user, "654321")
	assert.ErrorIs(suite.T(), err, ErrInvalidPIN)
	suite.subRepo.AssertNotCalled(suite.T(), "Activate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.activityRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

// No stored PIN and a wrong PIN are indistinguishable to the caller.
func (suite *SubscriptionServiceTestSuite) TestVerifyPIN_NoPINConfigured() {
	ctx := context.Background()

	suite.subRepo.On("GetByCompany", ctx, suite.user.CompanyID).Return(&models.Subscription{
		CompanyID: suite.user.CompanyID,
		Plan:      models.PlanGrowth,
		IsActive:  false,
	}, nil)

	err := suite.service.VerifyPIN(ctx, suite.user, "123456")
	assert.ErrorIs(suite.T(), err, ErrInvalidPIN)
}

func (suite *SubscriptionServiceTestSuite) TestVerifyPIN_NoSubscriptionRow() {
	ctx := context.Background()

	suite.subRepo.On("GetByCompany", ctx, suite.user.CompanyID).Return(nil, nil)

	err := suite.service.VerifyPIN(ctx, suite.user, "123456")
	assert.ErrorIs(suite.T(), err, ErrInvalidPIN)
}

// Repeated correct entries re-run the same activation write; the override
// is idempotent apart from the sliding one-month end date.
func (suite *SubscriptionServiceTestSuite) TestVerifyPIN_RepeatedEntryIsIdempotent() {
	ctx := context.Background()
	suite.allowAuxiliaryWrites()
	pin := "123456"

	suite.subRepo.On("GetByCompany", ctx, suite.user.CompanyID).Return(&models.Subscription{
		CompanyID: suite.user.CompanyID,
		Plan:      models.PlanGrowth,
		IsActive:  true,
		UnlockPIN: &pin,
	}, nil)
	suite.subRepo.On("Activate", ctx, suite.user.CompanyID, models.PlanGrowth, mock.AnythingOfType("*time.Time")).Return(nil).Times(2)
	suite.userRepo.On("SetManagersActive", ctx, suite.user.CompanyID).Return(nil).Times(2)
	suite.activityRepo.On("Create", ctx, mock.AnythingOfType("*models.ActivityLog")).Return(nil).Times(2)

	assert.NoError(suite.T(), suite.service.VerifyPIN(ctx, suite.user, pin))
	assert.NoError(suite.T(), suite.service.VerifyPIN(ctx, suite.user, pin))
}

func (suite *SubscriptionServiceTestSuite) TestAdjustLicense_SixMonths() {
	ctx := context.Background()
	suite.allowAuxiliaryWrites()
	pin := "999999"

	suite.subRepo.On("Upsert", ctx, mock.AnythingOfType("*models.Subscription")).Return(nil).Run(func(args mock.Arguments) {
		sub := args.Get(1).(*models.Subscription)
		assert.Equal(suite.T(), models.PlanPro, sub.Plan)
		assert.True(suite.T(), sub.IsActive)
		if assert.NotNil(suite.T(), sub.EndDate) {
			assert.WithinDuration(suite.T(), time.Now().AddDate(0, 6, 0), *sub.EndDate, time.Minute)
		}
		assert.Equal(suite.T(), &pin, sub.UnlockPIN)
	})

	err := suite.service.AdjustLicense(ctx, suite.user.CompanyID, models.PlanPro, "6mos", &pin)
	assert.NoError(suite.T(), err)
}

func (suite *SubscriptionServiceTestSuite) TestAdjustLicense_FreeClearsEndDate() {
	ctx := context.Background()
	suite.allowAuxiliaryWrites()

	suite.subRepo.On("Upsert", ctx, mock.AnythingOfType("*models.Subscription")).Return(nil).Run(func(args mock.Arguments) {
		sub := args.Get(1).(*models.Subscription)
		assert.Equal(suite.T(), models.PlanFree, sub.Plan)
		assert.Nil(suite.T(), sub.EndDate)
	})

	err := suite.service.AdjustLicense(ctx, suite.user.CompanyID, models.PlanFree, "", nil)
	assert.NoError(suite.T(), err)
}

func (suite *SubscriptionServiceTestSuite) TestAdjustLicense_RejectsUnknownDuration() {
	err := suite.service.AdjustLicense(context.Background(), suite.user.CompanyID, models.PlanPro, "2wks", nil)
	assert.Error(suite.T(), err)
}

func (suite *SubscriptionServiceTestSuite) TestStatus_DerivesEntitlement() {
	ctx := context.Background()
	end := time.Now().AddDate(0, 0, -2)

	suite.subRepo.On("GetByCompany", ctx, suite.user.CompanyID).Return(&models.Subscription{
		CompanyID: suite.user.CompanyID,
		Plan:      models.PlanGrowth,
		IsActive:  true,
		EndDate:   &end,
	}, nil)

	sub, ent, err := suite.service.Status(ctx, suite.user.CompanyID)
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), sub)
	assert.True(suite.T(), ent.IsExpired)
	assert.Equal(suite.T(), models.PlanFree, ent.EffectivePlan)
}

func (suite *SubscriptionServiceTestSuite) TestApproveClaim_ActivationFailureSurfaces() {
	ctx := context.Background()
	ticketID := uuid.New()

	suite.supportRepo.On("GetByID", ctx, ticketID).Return(&models.SupportTicket{
		ID:        ticketID,
		CompanyID: suite.user.CompanyID,
		Subject:   models.ClaimSubject,
		Status:    models.TicketOpen,
	}, nil)
	suite.supportRepo.On("Resolve", ctx, ticketID, (*string)(nil)).Return(nil)
	suite.subRepo.On("GetByCompany", ctx, suite.user.CompanyID).Return(nil, errors.New("connection reset"))

	err := suite.service.ApproveClaim(ctx, ticketID)
	assert.Error(suite.T(), err)
}
