package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"nadlan/internal/models"
	"nadlan/internal/pagination"
	"nadlan/internal/services"
)

func newAnalyses() *mockAnalysisService {
	return &mockAnalysisService{analyses: map[string]*models.Analysis{
		analysisID: {Base: models.Base{ID: analysisID}, CalculatorID: calcID, Type: models.AnalysisTypeYield},
	}}
}

func setupAnalysisRouter(who gin.HandlerFunc, svc *mockAnalysisService, audit *mockAuditService) *gin.Engine {
	h := NewAnalysisHandler(svc, newCalculators(), audit)
	r := gin.New()
	r.Use(who)
	r.POST("/analyses", h.CreateAnalysis)
	r.GET("/analyses", h.ListAnalyses)
	r.GET("/analyses/:id", h.GetAnalysis)
	r.PATCH("/analyses/:id", h.UpdateAnalysis)
	r.DELETE("/analyses/:id", h.DeleteAnalysis)
	return r
}

func TestAnalysisHandler_Create(t *testing.T) {
	t.Run("owner creates", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupAnalysisRouter(asInvestor(), newAnalyses(), audit)

		rec := doRequest(r, http.MethodPost, "/analyses",
			`{"calculatorId":"`+calcID+`","name":"Yield","type":"yield","parameters":{"purchasePrice":200000,"annualRent":12000}}`)
		assertStatus(t, rec, http.StatusCreated)
		if _, ok := parseJSON(t, rec)["analysis"]; !ok {
			t.Error("expected analysis envelope")
		}
		if audit.entries[0].action != "CREATE_ANALYSIS" {
			t.Errorf("unexpected audit action %q", audit.entries[0].action)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		r := setupAnalysisRouter(asAdvisor(), newAnalyses(), &mockAuditService{})

		rec := doRequest(r, http.MethodPost, "/analyses",
			`{"calculatorId":"`+calcID+`","name":"x","type":"astrology","parameters":{}}`)
		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("foreign calculator", func(t *testing.T) {
		r := setupAnalysisRouter(asInvestor(), newAnalyses(), &mockAuditService{})

		rec := doRequest(r, http.MethodPost, "/analyses",
			`{"calculatorId":"`+otherCalc+`","name":"x","type":"yield","parameters":{}}`)
		assertStatus(t, rec, http.StatusForbidden)
	})
}

func TestAnalysisHandler_List(t *testing.T) {
	capture := func(got *services.AnalysisFilter) *mockAnalysisService {
		svc := newAnalyses()
		svc.listFn = func(filter services.AnalysisFilter, _ pagination.PageRequest) (*pagination.PageResponse[models.Analysis], error) {
			*got = filter
			resp := pagination.NewPageResponse[models.Analysis](nil, 1, 20, 0)
			return &resp, nil
		}
		return svc
	}

	t.Run("investor without calculatorId is scoped by owner", func(t *testing.T) {
		var got services.AnalysisFilter
		r := setupAnalysisRouter(asInvestor(), capture(&got), &mockAuditService{})

		rec := doRequest(r, http.MethodGet, "/analyses?type=mortgage", "")
		assertStatus(t, rec, http.StatusOK)
		if got.OwnerID != investorID || got.Type != models.AnalysisTypeMortgage {
			t.Errorf("unexpected filter: %+v", got)
		}
	})

	t.Run("advisor sees everything", func(t *testing.T) {
		var got services.AnalysisFilter
		r := setupAnalysisRouter(asAdvisor(), capture(&got), &mockAuditService{})

		assertStatus(t, doRequest(r, http.MethodGet, "/analyses?calculatorId="+otherCalc, ""), http.StatusOK)
		if got.OwnerID != "" || got.CalculatorID != otherCalc {
			t.Errorf("unexpected filter: %+v", got)
		}
	})

	t.Run("investor cannot name a foreign calculator", func(t *testing.T) {
		var got services.AnalysisFilter
		r := setupAnalysisRouter(asInvestor(), capture(&got), &mockAuditService{})
		assertStatus(t, doRequest(r, http.MethodGet, "/analyses?calculatorId="+otherCalc, ""), http.StatusForbidden)
	})
}

func TestAnalysisHandler_Get(t *testing.T) {
	t.Run("owner reads", func(t *testing.T) {
		r := setupAnalysisRouter(asInvestor(), newAnalyses(), &mockAuditService{})
		assertStatus(t, doRequest(r, http.MethodGet, "/analyses/"+analysisID, ""), http.StatusOK)
	})

	t.Run("unknown analysis", func(t *testing.T) {
		r := setupAnalysisRouter(asAdvisor(), newAnalyses(), &mockAuditService{})

		rec := doRequest(r, http.MethodGet, "/analyses/"+invID, "")
		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "ANALYSIS_NOT_FOUND")
	})
}

func TestAnalysisHandler_Update(t *testing.T) {
	t.Run("investor may change parameters", func(t *testing.T) {
		var got services.AnalysisPatch
		svc := newAnalyses()
		svc.updateFn = func(id string, patch services.AnalysisPatch) (*models.Analysis, error) {
			got = patch
			return &models.Analysis{Base: models.Base{ID: id}}, nil
		}
		r := setupAnalysisRouter(asInvestor(), svc, &mockAuditService{})

		rec := doRequest(r, http.MethodPatch, "/analyses/"+analysisID, `{"parameters":{"purchasePrice":1,"annualRent":1},"investmentId":null}`)
		assertStatus(t, rec, http.StatusOK)
		if len(got.Parameters) == 0 || !got.InvestmentID.Set || got.InvestmentID.Value != nil {
			t.Errorf("unexpected patch: %+v", got)
		}
	})

	t.Run("moving to a foreign calculator is forbidden", func(t *testing.T) {
		r := setupAnalysisRouter(asInvestor(), newAnalyses(), &mockAuditService{})

		rec := doRequest(r, http.MethodPatch, "/analyses/"+analysisID, `{"calculatorId":"`+otherCalc+`"}`)
		assertStatus(t, rec, http.StatusForbidden)
	})

	t.Run("advisor may move", func(t *testing.T) {
		r := setupAnalysisRouter(asAdvisor(), newAnalyses(), &mockAuditService{})

		rec := doRequest(r, http.MethodPatch, "/analyses/"+analysisID, `{"calculatorId":"`+otherCalc+`"}`)
		assertStatus(t, rec, http.StatusOK)
	})
}

func TestAnalysisHandler_Delete(t *testing.T) {
	t.Run("owner deletes", func(t *testing.T) {
		r := setupAnalysisRouter(asInvestor(), newAnalyses(), &mockAuditService{})
		assertStatus(t, doRequest(r, http.MethodDelete, "/analyses/"+analysisID, ""), http.StatusNoContent)
	})

	t.Run("invalid id", func(t *testing.T) {
		r := setupAnalysisRouter(asInvestor(), newAnalyses(), &mockAuditService{})
		assertStatus(t, doRequest(r, http.MethodDelete, "/analyses/abc", ""), http.StatusBadRequest)
	})
}
