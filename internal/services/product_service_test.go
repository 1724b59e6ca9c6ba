package services

import (
	"context"
	"testing"
	"time"

	"stockmaster/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ProductServiceTestSuite struct {
	suite.Suite
	productRepo *MockProductRepository
	feed        *MockFeed
	service     ProductService
	evaluator   *EntitlementEvaluator
}

func (suite *ProductServiceTestSuite) SetupTest() {
	suite.productRepo = &MockProductRepository{}
	suite.feed = &MockFeed{}
	suite.service = NewProductService(suite.productRepo, suite.feed)
	suite.evaluator = NewEntitlementEvaluator(nil)
}

func (suite *ProductServiceTestSuite) TearDownTest() {
	suite.productRepo.AssertExpectations(suite.T())
}

func TestProductServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProductServiceTestSuite))
}

func (suite *ProductServiceTestSuite) freeEntitlement() Entitlement {
	return suite.evaluator.Evaluate(nil, time.Now())
}

func (suite *ProductServiceTestSuite) proEntitlement() Entitlement {
	return suite.evaluator.Evaluate(&models.Subscription{
		CompanyID: "SM-TEST01",
		Plan:      models.PlanPro,
		IsActive:  true,
	}, time.Now())
}

func (suite *ProductServiceTestSuite) TestCreate_UnderCap() {
	ctx := context.Background()
	suite.feed.On("Publish", mock.Anything, mock.Anything, "SM-TEST01", mock.Anything).Maybe()

	suite.productRepo.On("CountByCompany", ctx, "SM-TEST01").Return(10, nil)
	suite.productRepo.On("Create", ctx, mock.AnythingOfType("*models.Product")).Return(nil).Run(func(args mock.Arguments) {
		product := args.Get(1).(*models.Product)
		assert.NotEqual(suite.T(), uuid.Nil, product.ID)
	})

	err := suite.service.Create(ctx, suite.freeEntitlement(), &models.Product{
		CompanyID: "SM-TEST01",
		Name:      "Sugar 1kg",
		SKU:       "SG-1",
	})
	assert.NoError(suite.T(), err)
}

func (suite *ProductServiceTestSuite) TestCreate_FreeTierCapReached() {
	ctx := context.Background()

	suite.productRepo.On("CountByCompany", ctx, "SM-TEST01").Return(50, nil)

	err := suite.service.Create(ctx, suite.freeEntitlement(), &models.Product{
		CompanyID: "SM-TEST01",
		Name:      "Sugar 1kg",
		SKU:       "SG-1",
	})
	assert.ErrorIs(suite.T(), err, ErrProductLimit)
	suite.productRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

// The pro plan is uncapped: no count query, no limit check.
func (suite *ProductServiceTestSuite) TestCreate_ProTierSkipsCountEntirely() {
	ctx := context.Background()
	suite.feed.On("Publish", mock.Anything, mock.Anything, "SM-TEST01", mock.Anything).Maybe()

	suite.productRepo.On("Create", ctx, mock.AnythingOfType("*models.Product")).Return(nil)

	err := suite.service.Create(ctx, suite.proEntitlement(), &models.Product{
		CompanyID: "SM-TEST01",
		Name:      "Sugar 1kg",
		SKU:       "SG-1",
	})
	assert.NoError(suite.T(), err)
	suite.productRepo.AssertNotCalled(suite.T(), "CountByCompany", mock.Anything, mock.Anything)
}

func (suite *ProductServiceTestSuite) TestCreate_RequiresNameAndSKU() {
	err := suite.service.Create(context.Background(), suite.freeEntitlement(), &models.Product{
		CompanyID: "SM-TEST01",
	})
	assert.Error(suite.T(), err)
}

func (suite *ProductServiceTestSuite) TestRestock_RejectsNonPositiveQuantity() {
	err := suite.service.Restock(context.Background(), "SM-TEST01", uuid.New(), 0)
	assert.Error(suite.T(), err)
}
