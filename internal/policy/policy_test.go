package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nadlan/internal/errors"
	"nadlan/internal/models"
)

var (
	advisor  = Principal{UserID: "adv-1", Role: models.RoleAdvisor}
	investor = Principal{UserID: "inv-1", Role: models.RoleInvestor}
)

func assertForbidden(t *testing.T, err error) *apperrors.AppError {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
	return appErr
}

func TestAuthorize_Advisor(t *testing.T) {
	for _, res := range []Resource{ResourceCalculator, ResourceInvestment, ResourceAnalysis, ResourceProperty, ResourceSetting, ResourceUser, ResourceDashboard} {
		for _, action := range []Action{ActionList, ActionRead, ActionCreate, ActionUpdate, ActionDelete} {
			err := Authorize(advisor, action, Target{Resource: res, OwnerID: "someone-else", Fields: []string{"name", "userId"}})
			assert.NoError(t, err, "%s %s", action, res)
		}
	}
}

func TestAuthorize_InvestorCalculator(t *testing.T) {
	own := Target{Resource: ResourceCalculator, OwnerID: investor.UserID}
	other := Target{Resource: ResourceCalculator, OwnerID: "inv-2"}

	t.Run("reads and creates own calculators", func(t *testing.T) {
		assert.NoError(t, Authorize(investor, ActionRead, own))
		assert.NoError(t, Authorize(investor, ActionCreate, own))
	})

	t.Run("cannot touch other investors calculators", func(t *testing.T) {
		assertForbidden(t, Authorize(investor, ActionRead, other))
		assertForbidden(t, Authorize(investor, ActionCreate, other))
	})

	t.Run("cannot delete even own calculator", func(t *testing.T) {
		assertForbidden(t, Authorize(investor, ActionDelete, own))
	})

	t.Run("updates allowed fields", func(t *testing.T) {
		target := own
		target.Fields = []string{"selfEquity", "hasMortgage", "hasPropertyInIsrael", "investmentPreference"}
		assert.NoError(t, Authorize(investor, ActionUpdate, target))
	})

	t.Run("names disallowed fields", func(t *testing.T) {
		target := own
		target.Fields = []string{"selfEquity", "vatRate", "name"}
		appErr := assertForbidden(t, Authorize(investor, ActionUpdate, target))
		assert.Equal(t, []string{"name", "vatRate"}, appErr.DisallowedFields)
	})
}

func TestAuthorize_InvestorInvestment(t *testing.T) {
	own := Target{Resource: ResourceInvestment, OwnerID: investor.UserID}

	assert.NoError(t, Authorize(investor, ActionCreate, own))
	assert.NoError(t, Authorize(investor, ActionDelete, own))

	own.Fields = []string{"hasFurniture", "hasRealEstateAgent"}
	assert.NoError(t, Authorize(investor, ActionUpdate, own))

	own.Fields = []string{"hasFurniture", "priceOverride", "isSelected"}
	appErr := assertForbidden(t, Authorize(investor, ActionUpdate, own))
	assert.Equal(t, []string{"isSelected", "priceOverride"}, appErr.DisallowedFields)

	assertForbidden(t, Authorize(investor, ActionRead, Target{Resource: ResourceInvestment, OwnerID: "inv-2"}))
}

func TestAuthorize_InvestorAnalysis(t *testing.T) {
	own := Target{Resource: ResourceAnalysis, OwnerID: investor.UserID, Fields: []string{"name", "isDefault"}}
	for _, action := range []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete} {
		assert.NoError(t, Authorize(investor, action, own))
	}
	assertForbidden(t, Authorize(investor, ActionRead, Target{Resource: ResourceAnalysis, OwnerID: "inv-2"}))
}

func TestAuthorize_InvestorCatalogAndSettings(t *testing.T) {
	assert.NoError(t, Authorize(investor, ActionList, Target{Resource: ResourceProperty}))
	assert.NoError(t, Authorize(investor, ActionRead, Target{Resource: ResourceProperty}))
	for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
		assertForbidden(t, Authorize(investor, action, Target{Resource: ResourceProperty}))
		assertForbidden(t, Authorize(investor, action, Target{Resource: ResourceSetting}))
	}
	assert.NoError(t, Authorize(investor, ActionRead, Target{Resource: ResourceSetting}))
	assertForbidden(t, Authorize(investor, ActionList, Target{Resource: ResourceSetting}))
	assert.NoError(t, Authorize(investor, ActionRead, Target{Resource: ResourceDashboard}))
	assertForbidden(t, Authorize(investor, ActionList, Target{Resource: ResourceDashboard}))
}

func TestAuthorize_InvestorUsers(t *testing.T) {
	self := Target{Resource: ResourceUser, OwnerID: investor.UserID}
	assert.NoError(t, Authorize(investor, ActionRead, self))

	self.Fields = []string{"name", "phone"}
	assert.NoError(t, Authorize(investor, ActionUpdate, self))

	self.Fields = []string{"name", "role"}
	appErr := assertForbidden(t, Authorize(investor, ActionUpdate, self))
	assert.Equal(t, []string{"role"}, appErr.DisallowedFields)

	assertForbidden(t, Authorize(investor, ActionRead, Target{Resource: ResourceUser, OwnerID: "inv-2"}))
	assertForbidden(t, Authorize(investor, ActionList, Target{Resource: ResourceUser}))
	assertForbidden(t, Authorize(investor, ActionCreate, Target{Resource: ResourceUser}))
}

func TestAuthorize_Unauthenticated(t *testing.T) {
	err := Authorize(Principal{}, ActionRead, Target{Resource: ResourceProperty})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestDisallowed(t *testing.T) {
	assert.Empty(t, Disallowed(nil, InvestorCalculatorFields))
	assert.Equal(t, []string{"a", "b"}, Disallowed([]string{"b", "hasFurniture", "a"}, InvestorInvestmentFields))
}
