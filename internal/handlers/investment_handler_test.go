package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"nadlan/internal/models"
	"nadlan/internal/services"
)

func newInvestments() *mockInvestmentService {
	return &mockInvestmentService{investments: map[string]*models.Investment{
		invID: {Base: models.Base{ID: invID}, CalculatorID: calcID, PropertyID: propertyID, Name: "Sea view"},
	}}
}

func setupInvestmentRouter(who gin.HandlerFunc, svc *mockInvestmentService, audit *mockAuditService) *gin.Engine {
	h := NewInvestmentHandler(svc, newCalculators(), audit)
	r := gin.New()
	r.Use(who)
	r.POST("/investments", h.CreateInvestment)
	r.GET("/investments", h.ListInvestments)
	r.GET("/investments/:id", h.GetInvestment)
	r.PATCH("/investments/:id", h.UpdateInvestment)
	r.DELETE("/investments/:id", h.DeleteInvestment)
	return r
}

func TestInvestmentHandler_Create(t *testing.T) {
	t.Run("owner adds an option", func(t *testing.T) {
		var got services.CreateInvestmentInput
		svc := newInvestments()
		svc.createFn = func(input services.CreateInvestmentInput) (*models.Investment, error) {
			got = input
			return &models.Investment{Base: models.Base{ID: invID}, CalculatorID: input.CalculatorID}, nil
		}
		r := setupInvestmentRouter(asInvestor(), svc, &mockAuditService{})

		rec := doRequest(r, http.MethodPost, "/investments",
			`{"calculatorId":"`+calcID+`","propertyId":"`+propertyID+`","priceOverride":"250000","isSelected":true}`)
		assertStatus(t, rec, http.StatusCreated)
		if !got.IsSelected || got.PriceOverride == nil || got.PriceOverride.String() != "250000" {
			t.Errorf("unexpected input: %+v", got)
		}
	})

	t.Run("foreign calculator is forbidden", func(t *testing.T) {
		r := setupInvestmentRouter(asInvestor(), newInvestments(), &mockAuditService{})

		rec := doRequest(r, http.MethodPost, "/investments",
			`{"calculatorId":"`+otherCalc+`","propertyId":"`+propertyID+`"}`)
		assertStatus(t, rec, http.StatusForbidden)
	})

	t.Run("missing property", func(t *testing.T) {
		r := setupInvestmentRouter(asAdvisor(), newInvestments(), &mockAuditService{})

		rec := doRequest(r, http.MethodPost, "/investments", `{"calculatorId":"`+calcID+`"}`)
		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestInvestmentHandler_List(t *testing.T) {
	t.Run("requires calculatorId", func(t *testing.T) {
		r := setupInvestmentRouter(asAdvisor(), newInvestments(), &mockAuditService{})

		rec := doRequest(r, http.MethodGet, "/investments", "")
		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("owner lists", func(t *testing.T) {
		r := setupInvestmentRouter(asInvestor(), newInvestments(), &mockAuditService{})
		assertStatus(t, doRequest(r, http.MethodGet, "/investments?calculatorId="+calcID, ""), http.StatusOK)
	})

	t.Run("other investor is forbidden", func(t *testing.T) {
		r := setupInvestmentRouter(asInvestor(), newInvestments(), &mockAuditService{})
		assertStatus(t, doRequest(r, http.MethodGet, "/investments?calculatorId="+otherCalc, ""), http.StatusForbidden)
	})
}

func TestInvestmentHandler_Update(t *testing.T) {
	t.Run("investor toggles amenities", func(t *testing.T) {
		r := setupInvestmentRouter(asInvestor(), newInvestments(), &mockAuditService{})

		rec := doRequest(r, http.MethodPatch, "/investments/"+invID, `{"hasFurniture":true,"hasRealEstateAgent":false}`)
		assertStatus(t, rec, http.StatusOK)
	})

	t.Run("investor cannot override price or select", func(t *testing.T) {
		r := setupInvestmentRouter(asInvestor(), newInvestments(), &mockAuditService{})

		rec := doRequest(r, http.MethodPatch, "/investments/"+invID, `{"priceOverride":null,"isSelected":true}`)
		assertStatus(t, rec, http.StatusForbidden)
		errObj := parseJSON(t, rec)["error"].(map[string]interface{})
		fields, _ := errObj["disallowedFields"].([]interface{})
		if len(fields) != 2 || fields[0] != "isSelected" || fields[1] != "priceOverride" {
			t.Errorf("expected disallowedFields [isSelected priceOverride], got %v", errObj["disallowedFields"])
		}
	})

	t.Run("advisor clears an override with null", func(t *testing.T) {
		var got services.InvestmentPatch
		svc := newInvestments()
		svc.updateFn = func(id string, patch services.InvestmentPatch) (*models.Investment, error) {
			got = patch
			return &models.Investment{Base: models.Base{ID: id}}, nil
		}
		r := setupInvestmentRouter(asAdvisor(), svc, &mockAuditService{})

		rec := doRequest(r, http.MethodPatch, "/investments/"+invID, `{"priceOverride":null}`)
		assertStatus(t, rec, http.StatusOK)
		if !got.PriceOverride.Set || got.PriceOverride.Value.Valid {
			t.Errorf("expected an explicit null, got %+v", got.PriceOverride)
		}
		if got.MonthlyRentOverride.Set {
			t.Error("absent field must not be marked set")
		}
	})

	t.Run("unknown investment", func(t *testing.T) {
		r := setupInvestmentRouter(asAdvisor(), newInvestments(), &mockAuditService{})

		rec := doRequest(r, http.MethodPatch, "/investments/"+analysisID, `{"name":"x"}`)
		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "INVESTMENT_NOT_FOUND")
	})
}

func TestInvestmentHandler_Delete(t *testing.T) {
	svc := newInvestments()
	audit := &mockAuditService{}
	r := setupInvestmentRouter(asInvestor(), svc, audit)

	rec := doRequest(r, http.MethodDelete, "/investments/"+invID, "")
	assertStatus(t, rec, http.StatusNoContent)
	if len(svc.deleted) != 1 || svc.deleted[0] != invID {
		t.Errorf("expected %s deleted, got %v", invID, svc.deleted)
	}
	if audit.entries[0].action != "DELETE_INVESTMENT" {
		t.Errorf("unexpected audit action %q", audit.entries[0].action)
	}
}
