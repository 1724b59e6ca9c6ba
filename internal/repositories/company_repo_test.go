package repositories

import (
	"context"
	"testing"
	"time"

	"stockmaster/internal/models"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type CompanyRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    CompanyRepository
	context context.Context
}

func (suite *CompanyRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewCompanyRepo(mock)
	suite.context = context.Background()
}

func (suite *CompanyRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestCompanyRepoTestSuite(t *testing.T) {
	suite.Run(t, new(CompanyRepoTestSuite))
}

func companyJoinColumns() []string {
	return []string{
		"id", "name", "currency", "created_at",
		"company_id", "plan", "is_active", "start_date", "end_date",
		"payer_name", "payer_phone", "unlock_pin", "updated_at",
	}
}

// The admin overview is a single joined query: tenants with a subscription
// carry it, tenants without one come back with a nil subscription.
func (suite *CompanyRepoTestSuite) TestListWithSubscriptions_JoinsInOneQuery() {
	now := time.Now()
	end := now.AddDate(0, 1, 0)
	subID := "SM-AAA111"
	plan := string(models.PlanGrowth)
	active := true

	suite.mock.ExpectQuery(`(?s)SELECT c\.id, c\.name, c\.currency, c\.created_at,.+LEFT JOIN subscriptions s ON s\.company_id = c\.id`).
		WithArgs(50, 0).
		WillReturnRows(pgxmock.NewRows(companyJoinColumns()).
			AddRow("SM-AAA111", "Alice's Shop", "RWF", now,
				&subID, &plan, &active, &now, &end,
				(*string)(nil), (*string)(nil), (*string)(nil), &now).
			AddRow("SM-BBB222", "Bob's Shop", "RWF", now,
				(*string)(nil), (*string)(nil), (*bool)(nil), (*time.Time)(nil), (*time.Time)(nil),
				(*string)(nil), (*string)(nil), (*string)(nil), (*time.Time)(nil)))

	rows, err := suite.repo.ListWithSubscriptions(suite.context, 50, 0)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), rows, 2)

	assert.Equal(suite.T(), "SM-AAA111", rows[0].Company.ID)
	assert.NotNil(suite.T(), rows[0].Subscription)
	assert.Equal(suite.T(), models.PlanGrowth, rows[0].Subscription.Plan)
	assert.True(suite.T(), rows[0].Subscription.IsActive)

	assert.Equal(suite.T(), "SM-BBB222", rows[1].Company.ID)
	assert.Nil(suite.T(), rows[1].Subscription)
}

func (suite *CompanyRepoTestSuite) TestGetByID() {
	now := time.Now()
	suite.mock.ExpectQuery(`SELECT id, name, currency, created_at`).
		WithArgs("SM-AAA111").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "currency", "created_at"}).
			AddRow("SM-AAA111", "Alice's Shop", "RWF", now))

	company, err := suite.repo.GetByID(suite.context, "SM-AAA111")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Alice's Shop", company.Name)
}

func (suite *CompanyRepoTestSuite) TestUpdateCurrency() {
	suite.mock.ExpectExec(`UPDATE companies SET currency = \$1 WHERE id = \$2`).
		WithArgs("USD", "SM-AAA111").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.UpdateCurrency(suite.context, "SM-AAA111", "USD")
	assert.NoError(suite.T(), err)
}
