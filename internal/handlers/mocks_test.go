package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"nadlan/internal/config"
	apperrors "nadlan/internal/errors"
	"nadlan/internal/middleware"
	"nadlan/internal/models"
	"nadlan/internal/pagination"
	"nadlan/internal/services"
	"nadlan/internal/validator"
)

const (
	advisorID  = "0192f1a0-0000-7000-8000-00000000000a"
	investorID = "0192f1a0-0000-7000-8000-00000000000b"
	strangerID = "0192f1a0-0000-7000-8000-00000000000c"
	calcID     = "0192f1a0-0000-7000-8000-000000000c01"
	otherCalc  = "0192f1a0-0000-7000-8000-000000000c02"
	invID      = "0192f1a0-0000-7000-8000-000000000101"
	analysisID = "0192f1a0-0000-7000-8000-000000000a01"
	propertyID = "0192f1a0-0000-7000-8000-000000000d01"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
	config.Set(&config.Config{JWTSecret: "handler-test-secret", JWTExpirationDur: time.Minute})
}

// --- mock services ---

type mockUserService struct {
	createUserFn            func(input services.CreateUserInput) (*models.User, error)
	getUserByIDFn           func(id string) (*models.User, error)
	attemptLoginFn          func(username, password string) (*models.User, error)
	listInvestorsFn         func(page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	updateUserFn            func(id string, patch services.UserPatch) (*models.User, error)
	storeRefreshTokenHashFn func(userID, tokenHash string) error
	getRefreshTokenHashFn   func(userID string) (string, error)
}

func (m *mockUserService) CreateUser(input services.CreateUserInput) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(input)
	}
	return &models.User{Username: input.Username, Role: input.Role}, nil
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{Base: models.Base{ID: id}, Status: models.UserStatusActive}, nil
}

func (m *mockUserService) GetUserByUsername(username string) (*models.User, error) {
	return &models.User{Username: username}, nil
}

func (m *mockUserService) AttemptLogin(username, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(username, password)
	}
	return &models.User{Username: username}, nil
}

func (m *mockUserService) ListInvestors(page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
	if m.listInvestorsFn != nil {
		return m.listInvestorsFn(page)
	}
	resp := pagination.NewPageResponse[models.User](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockUserService) UpdateUser(id string, patch services.UserPatch) (*models.User, error) {
	if m.updateUserFn != nil {
		return m.updateUserFn(id, patch)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) StoreRefreshTokenHash(userID, tokenHash string) error {
	if m.storeRefreshTokenHashFn != nil {
		return m.storeRefreshTokenHashFn(userID, tokenHash)
	}
	return nil
}

func (m *mockUserService) GetRefreshTokenHash(userID string) (string, error) {
	if m.getRefreshTokenHashFn != nil {
		return m.getRefreshTokenHashFn(userID)
	}
	return "", nil
}

type mockCalculatorService struct {
	calculators map[string]*models.Calculator
	createFn    func(input services.CreateCalculatorInput) (*models.Calculator, error)
	listFn      func(filter services.CalculatorFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Calculator], error)
	updateFn    func(id string, patch services.CalculatorPatch) (*models.Calculator, error)
	duplicateFn func(id string) (*models.Calculator, error)
	deleteFn    func(id string) error
	recentCalls []string
}

// newCalculators returns a mock holding calcID owned by investorID and
// otherCalc owned by strangerID.
func newCalculators() *mockCalculatorService {
	return &mockCalculatorService{calculators: map[string]*models.Calculator{
		calcID:    {Base: models.Base{ID: calcID}, UserID: investorID, Name: "Plan A"},
		otherCalc: {Base: models.Base{ID: otherCalc}, UserID: strangerID, Name: "Plan B"},
	}}
}

func (m *mockCalculatorService) CreateCalculator(input services.CreateCalculatorInput) (*models.Calculator, error) {
	if m.createFn != nil {
		return m.createFn(input)
	}
	return &models.Calculator{Base: models.Base{ID: calcID}, UserID: input.UserID, Name: input.Name}, nil
}

func (m *mockCalculatorService) GetCalculatorByID(id string) (*models.Calculator, error) {
	if calc, ok := m.calculators[id]; ok {
		return calc, nil
	}
	return nil, apperrors.ErrCalculatorNotFound
}

func (m *mockCalculatorService) ListCalculators(filter services.CalculatorFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Calculator], error) {
	if m.listFn != nil {
		return m.listFn(filter, page)
	}
	resp := pagination.NewPageResponse[models.Calculator](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockCalculatorService) RecentCalculators(userID string, _ int) ([]models.Calculator, error) {
	m.recentCalls = append(m.recentCalls, userID)
	return []models.Calculator{}, nil
}

func (m *mockCalculatorService) UpdateCalculator(id string, patch services.CalculatorPatch) (*models.Calculator, error) {
	if m.updateFn != nil {
		return m.updateFn(id, patch)
	}
	return m.GetCalculatorByID(id)
}

func (m *mockCalculatorService) DuplicateCalculator(id string) (*models.Calculator, error) {
	if m.duplicateFn != nil {
		return m.duplicateFn(id)
	}
	return &models.Calculator{Base: models.Base{ID: otherCalc}, Name: "Copy"}, nil
}

func (m *mockCalculatorService) DeleteCalculator(id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(id)
	}
	return nil
}

type mockPropertyService struct {
	createFn func(input services.CreatePropertyInput) (*models.Property, error)
	listFn   func(filter services.PropertyFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Property], error)
	deleteFn func(id string) error
}

func (m *mockPropertyService) CreateProperty(input services.CreatePropertyInput) (*models.Property, error) {
	if m.createFn != nil {
		return m.createFn(input)
	}
	return &models.Property{Name: input.Name}, nil
}

func (m *mockPropertyService) GetPropertyByID(id string) (*models.Property, error) {
	return &models.Property{Base: models.Base{ID: id}}, nil
}

func (m *mockPropertyService) ListProperties(filter services.PropertyFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Property], error) {
	if m.listFn != nil {
		return m.listFn(filter, page)
	}
	resp := pagination.NewPageResponse[models.Property](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockPropertyService) UpdateProperty(id string, _ services.PropertyPatch) (*models.Property, error) {
	return &models.Property{Base: models.Base{ID: id}}, nil
}

func (m *mockPropertyService) DeleteProperty(id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(id)
	}
	return nil
}

type mockInvestmentService struct {
	investments map[string]*models.Investment
	createFn    func(input services.CreateInvestmentInput) (*models.Investment, error)
	updateFn    func(id string, patch services.InvestmentPatch) (*models.Investment, error)
	deleted     []string
}

func (m *mockInvestmentService) CreateInvestment(input services.CreateInvestmentInput) (*models.Investment, error) {
	if m.createFn != nil {
		return m.createFn(input)
	}
	return &models.Investment{Base: models.Base{ID: invID}, CalculatorID: input.CalculatorID}, nil
}

func (m *mockInvestmentService) GetInvestmentByID(id string) (*models.Investment, error) {
	if inv, ok := m.investments[id]; ok {
		return inv, nil
	}
	return nil, apperrors.ErrInvestmentNotFound
}

func (m *mockInvestmentService) ListInvestments(_ string, _ pagination.PageRequest) (*pagination.PageResponse[models.Investment], error) {
	resp := pagination.NewPageResponse[models.Investment](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockInvestmentService) UpdateInvestment(id string, patch services.InvestmentPatch) (*models.Investment, error) {
	if m.updateFn != nil {
		return m.updateFn(id, patch)
	}
	return m.GetInvestmentByID(id)
}

func (m *mockInvestmentService) DeleteInvestment(id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockAnalysisService struct {
	analyses map[string]*models.Analysis
	createFn func(input services.CreateAnalysisInput) (*models.Analysis, error)
	listFn   func(filter services.AnalysisFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Analysis], error)
	updateFn func(id string, patch services.AnalysisPatch) (*models.Analysis, error)
}

func (m *mockAnalysisService) CreateAnalysis(input services.CreateAnalysisInput) (*models.Analysis, error) {
	if m.createFn != nil {
		return m.createFn(input)
	}
	return &models.Analysis{Base: models.Base{ID: analysisID}, CalculatorID: input.CalculatorID, Type: input.Type}, nil
}

func (m *mockAnalysisService) GetAnalysisByID(id string) (*models.Analysis, error) {
	if a, ok := m.analyses[id]; ok {
		return a, nil
	}
	return nil, apperrors.ErrAnalysisNotFound
}

func (m *mockAnalysisService) ListAnalyses(filter services.AnalysisFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Analysis], error) {
	if m.listFn != nil {
		return m.listFn(filter, page)
	}
	resp := pagination.NewPageResponse[models.Analysis](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockAnalysisService) UpdateAnalysis(id string, patch services.AnalysisPatch) (*models.Analysis, error) {
	if m.updateFn != nil {
		return m.updateFn(id, patch)
	}
	return m.GetAnalysisByID(id)
}

func (m *mockAnalysisService) DeleteAnalysis(_ string) error { return nil }

type mockSettingService struct {
	settings map[string]*models.Setting
	updates  []string
}

func (m *mockSettingService) ListSettings() ([]models.Setting, error) {
	out := make([]models.Setting, 0, len(m.settings))
	for _, s := range m.settings {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockSettingService) GetSetting(key string) (*models.Setting, error) {
	if s, ok := m.settings[key]; ok {
		return s, nil
	}
	return nil, apperrors.ErrSettingNotFound
}

func (m *mockSettingService) UpdateSetting(key, value string, _ *string) (*models.Setting, error) {
	m.updates = append(m.updates, key+"="+value)
	return &models.Setting{Key: key, Value: value}, nil
}

type mockDashboardService struct {
	ownerID string
}

func (m *mockDashboardService) Overview(ownerID string) (*services.DashboardOverview, error) {
	m.ownerID = ownerID
	if ownerID != "" {
		return &services.DashboardOverview{Calculators: 1}, nil
	}
	return &services.DashboardOverview{Investors: 2, Calculators: 3}, nil
}

type auditEntry struct {
	userID, action, resourceType, resourceID string
}

type mockAuditService struct {
	entries []auditEntry
}

func (m *mockAuditService) Log(userID, action, resourceType, resourceID, _ string, _ map[string]any) {
	m.entries = append(m.entries, auditEntry{userID, action, resourceType, resourceID})
}

// --- test helpers ---

func injectPrincipal(userID string, role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextRole, role)
		c.Next()
	}
}

func asAdvisor() gin.HandlerFunc  { return injectPrincipal(advisorID, models.RoleAdvisor) }
func asInvestor() gin.HandlerFunc { return injectPrincipal(investorID, models.RoleInvestor) }

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
