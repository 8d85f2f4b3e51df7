package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"nadlan/internal/models"
)

func newSettings() *mockSettingService {
	return &mockSettingService{settings: map[string]*models.Setting{
		models.SettingVATRate: {Key: models.SettingVATRate, Value: "19"},
	}}
}

func setupSettingRouter(who gin.HandlerFunc, svc *mockSettingService, audit *mockAuditService) *gin.Engine {
	h := NewSettingHandler(svc, audit)
	r := gin.New()
	r.GET("/settings", who, h.ListSettings)
	r.GET("/settings/:key", who, h.GetSetting)
	r.PUT("/settings/:key", who, h.UpdateSetting)
	r.PUT("/pipeline/settings/:key", h.PipelineUpdateSetting)
	return r
}

func TestSettingHandler_List(t *testing.T) {
	t.Run("advisor lists", func(t *testing.T) {
		r := setupSettingRouter(asAdvisor(), newSettings(), &mockAuditService{})

		rec := doRequest(r, http.MethodGet, "/settings", "")
		assertStatus(t, rec, http.StatusOK)
		if data, _ := parseJSON(t, rec)["data"].([]interface{}); len(data) != 1 {
			t.Errorf("expected 1 setting, got %v", data)
		}
	})

	t.Run("investor is forbidden", func(t *testing.T) {
		r := setupSettingRouter(asInvestor(), newSettings(), &mockAuditService{})
		assertStatus(t, doRequest(r, http.MethodGet, "/settings", ""), http.StatusForbidden)
	})
}

func TestSettingHandler_Get(t *testing.T) {
	t.Run("investor reads a key", func(t *testing.T) {
		r := setupSettingRouter(asInvestor(), newSettings(), &mockAuditService{})

		rec := doRequest(r, http.MethodGet, "/settings/vatRate", "")
		assertStatus(t, rec, http.StatusOK)
		setting := parseJSON(t, rec)["setting"].(map[string]interface{})
		if setting["value"] != "19" {
			t.Errorf("expected 19, got %v", setting["value"])
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		r := setupSettingRouter(asAdvisor(), newSettings(), &mockAuditService{})

		rec := doRequest(r, http.MethodGet, "/settings/unknownKey", "")
		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "SETTING_NOT_FOUND")
	})
}

func TestSettingHandler_Update(t *testing.T) {
	t.Run("advisor upserts", func(t *testing.T) {
		svc := newSettings()
		audit := &mockAuditService{}
		r := setupSettingRouter(asAdvisor(), svc, audit)

		rec := doRequest(r, http.MethodPut, "/settings/exchangeRate", `{"value":"3.91"}`)
		assertStatus(t, rec, http.StatusOK)
		if len(svc.updates) != 1 || svc.updates[0] != "exchangeRate=3.91" {
			t.Errorf("unexpected updates: %v", svc.updates)
		}
		if audit.entries[0].userID != advisorID || audit.entries[0].resourceID != "exchangeRate" {
			t.Errorf("unexpected audit entry: %+v", audit.entries[0])
		}
	})

	t.Run("investor is forbidden", func(t *testing.T) {
		r := setupSettingRouter(asInvestor(), newSettings(), &mockAuditService{})
		assertStatus(t, doRequest(r, http.MethodPut, "/settings/vatRate", `{"value":"18"}`), http.StatusForbidden)
	})

	t.Run("value is required", func(t *testing.T) {
		r := setupSettingRouter(asAdvisor(), newSettings(), &mockAuditService{})
		assertStatus(t, doRequest(r, http.MethodPut, "/settings/vatRate", `{}`), http.StatusBadRequest)
	})
}

func TestSettingHandler_PipelineUpdate(t *testing.T) {
	svc := newSettings()
	audit := &mockAuditService{}
	r := setupSettingRouter(asAdvisor(), svc, audit)

	rec := doRequest(r, http.MethodPut, "/pipeline/settings/exchangeRate", `{"value":"3.8812"}`)
	assertStatus(t, rec, http.StatusOK)
	if audit.entries[0].userID != pipelineActor {
		t.Errorf("expected pipeline actor, got %q", audit.entries[0].userID)
	}
}
