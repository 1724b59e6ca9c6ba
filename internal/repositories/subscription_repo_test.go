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

type SubscriptionRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    SubscriptionRepository
	context context.Context
}

func (suite *SubscriptionRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewSubscriptionRepo(mock)
	suite.context = context.Background()
}

func (suite *SubscriptionRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestSubscriptionRepoTestSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionRepoTestSuite))
}

func subscriptionColumns() []string {
	return []string{"company_id", "plan", "is_active", "start_date", "end_date", "payer_name", "payer_phone", "unlock_pin", "updated_at"}
}

func (suite *SubscriptionRepoTestSuite) TestGetByCompany_Found() {
	now := time.Now()
	end := now.AddDate(0, 1, 0)

	suite.mock.ExpectQuery(`SELECT company_id, plan, is_active, start_date, end_date, payer_name, payer_phone, unlock_pin, updated_at`).
		WithArgs("SM-AAA111").
		WillReturnRows(pgxmock.NewRows(subscriptionColumns()).
			AddRow("SM-AAA111", models.PlanGrowth, true, now, &end, (*string)(nil), (*string)(nil), (*string)(nil), now))

	sub, err := suite.repo.GetByCompany(suite.context, "SM-AAA111")
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), sub)
	assert.Equal(suite.T(), models.PlanGrowth, sub.Plan)
	assert.True(suite.T(), sub.IsActive)
}

// A tenant with no row is the implicit free tier, not an error.
func (suite *SubscriptionRepoTestSuite) TestGetByCompany_NoRowMeansNilNil() {
	suite.mock.ExpectQuery(`SELECT company_id, plan, is_active, start_date, end_date, payer_name, payer_phone, unlock_pin, updated_at`).
		WithArgs("SM-BBB222").
		WillReturnRows(pgxmock.NewRows(subscriptionColumns()))

	sub, err := suite.repo.GetByCompany(suite.context, "SM-BBB222")
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), sub)
}

func (suite *SubscriptionRepoTestSuite) TestUpsert_ConflictsOnCompanyID() {
	payerName := "Alice Manager"
	payerPhone := "0788123456"

	suite.mock.ExpectExec(`(?s)INSERT INTO subscriptions .+ ON CONFLICT \(company_id\) DO UPDATE SET`).
		WithArgs("SM-AAA111", models.PlanGrowth, false, (*time.Time)(nil), &payerName, &payerPhone, (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Upsert(suite.context, &models.Subscription{
		CompanyID:  "SM-AAA111",
		Plan:       models.PlanGrowth,
		IsActive:   false,
		PayerName:  &payerName,
		PayerPhone: &payerPhone,
	})
	assert.NoError(suite.T(), err)
}

func (suite *SubscriptionRepoTestSuite) TestActivate() {
	end := time.Now().AddDate(0, 1, 0)

	suite.mock.ExpectExec(`(?s)INSERT INTO subscriptions .+ is_active = TRUE`).
		WithArgs("SM-AAA111", models.PlanPro, &end).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Activate(suite.context, "SM-AAA111", models.PlanPro, &end)
	assert.NoError(suite.T(), err)
}

func (suite *SubscriptionRepoTestSuite) TestSetUnlockPIN() {
	pin := "123456"

	suite.mock.ExpectExec(`UPDATE subscriptions`).
		WithArgs(&pin, "SM-AAA111").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.SetUnlockPIN(suite.context, "SM-AAA111", &pin)
	assert.NoError(suite.T(), err)
}

func (suite *SubscriptionRepoTestSuite) TestListExpired() {
	now := time.Now()
	end := now.AddDate(0, 0, -3)

	suite.mock.ExpectQuery(`WHERE is_active = TRUE AND plan != 'free' AND end_date IS NOT NULL AND end_date < \$1`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(subscriptionColumns()).
			AddRow("SM-AAA111", models.PlanGrowth, true, now.AddDate(0, -1, 0), &end, (*string)(nil), (*string)(nil), (*string)(nil), now))

	subs, err := suite.repo.ListExpired(suite.context, now)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), subs, 1)
	assert.Equal(suite.T(), "SM-AAA111", subs[0].CompanyID)
}

func (suite *SubscriptionRepoTestSuite) TestListPendingClaims() {
	now := time.Now()
	phone := "0788123456"

	suite.mock.ExpectQuery(`WHERE is_active = FALSE AND plan != 'free'`).
		WillReturnRows(pgxmock.NewRows(subscriptionColumns()).
			AddRow("SM-CCC333", models.PlanPro, false, now, (*time.Time)(nil), (*string)(nil), &phone, (*string)(nil), now).
			AddRow("SM-AAA111", models.PlanGrowth, false, now, (*time.Time)(nil), (*string)(nil), (*string)(nil), (*string)(nil), now))

	subs, err := suite.repo.ListPendingClaims(suite.context)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), subs, 2)
}
