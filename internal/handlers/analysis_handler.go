package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "nadlan/internal/errors"
	"nadlan/internal/models"
	"nadlan/internal/pagination"
	"nadlan/internal/policy"
	"nadlan/internal/services"
)

// AnalysisHandler handles analyses.
type AnalysisHandler struct {
	analysisService services.AnalysisServicer
	auditService    services.AuditServicer
	owners          ownerResolver
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysisService services.AnalysisServicer, calculatorService services.CalculatorServicer, auditService services.AuditServicer) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		auditService:    auditService,
		owners:          ownerResolver{calculators: calculatorService},
	}
}

type analysisListQuery struct {
	pagination.PageRequest
	CalculatorID string              `form:"calculatorId" binding:"omitempty,uuid"`
	InvestmentID string              `form:"investmentId" binding:"omitempty,uuid"`
	Type         models.AnalysisType `form:"type" binding:"omitempty,analysis_type"`
}

// CreateAnalysis handles creating an analysis.
// @Summary     Create analysis
// @Description Compute and store an analysis. Results are always derived from the parameters.
// @Tags        analyses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.CreateAnalysisInput true "Analysis details"
// @Success     201 {object} models.Analysis "Analysis created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Calculator not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analyses [post]
func (h *AnalysisHandler) CreateAnalysis(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.CreateAnalysisInput
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.authorizeCalculator(principal, policy.ActionCreate, req.CalculatorID); err != nil {
		respondWithError(c, err)
		return
	}

	analysis, err := h.analysisService.CreateAnalysis(req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(principal.UserID, "CREATE_ANALYSIS", "analysis", analysis.ID, c.ClientIP(),
		map[string]any{"calculatorId": analysis.CalculatorID, "type": string(analysis.Type), "isDefault": analysis.IsDefault})

	c.JSON(http.StatusCreated, gin.H{"analysis": analysis})
}

// ListAnalyses handles listing analyses.
// @Summary     List analyses
// @Description Without calculatorId advisors see every analysis and investors those of their own calculators.
// @Tags        analyses
// @Produce     json
// @Security    BearerAuth
// @Param       calculatorId query string false "Calculator ID"
// @Param       investmentId query string false "Investment ID"
// @Param       type         query string false "Analysis type"
// @Param       page         query int    false "Page number (default 1)"
// @Param       pageSize     query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Analysis] "Paginated analyses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Calculator not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analyses [get]
func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q analysisListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.Validation(err))
		return
	}

	filter := services.AnalysisFilter{CalculatorID: q.CalculatorID, InvestmentID: q.InvestmentID, Type: q.Type}
	if q.CalculatorID != "" {
		if err := h.authorizeCalculator(principal, policy.ActionList, q.CalculatorID); err != nil {
			respondWithError(c, err)
			return
		}
	}
	if !principal.IsAdvisor() {
		filter.OwnerID = principal.UserID
	}

	result, err := h.analysisService.ListAnalyses(filter, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAnalysis handles retrieving an analysis.
// @Summary     Get analysis
// @Description Get an analysis by ID
// @Tags        analyses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Analysis ID"
// @Success     200 {object} models.Analysis "Analysis"
// @Failure     400 {object} ErrorResponse "Invalid analysis ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Analysis not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analyses/{id} [get]
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	_, analysis, ok := h.loadAuthorized(c, policy.ActionRead)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}

// UpdateAnalysis handles an analysis patch.
// @Summary     Update analysis
// @Description Changing parameters or type recomputes results. Moving to another calculator requires access to both.
// @Tags        analyses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                 true "Analysis ID"
// @Param       request body services.AnalysisPatch true "Fields to change"
// @Success     200 {object} models.Analysis "Updated analysis"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Analysis not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analyses/{id} [patch]
func (h *AnalysisHandler) UpdateAnalysis(c *gin.Context) {
	var patch services.AnalysisPatch
	fields, err := bindPatch(c, &patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	principal, analysis, ok := h.loadAuthorized(c, policy.ActionUpdate)
	if !ok {
		return
	}
	if patch.CalculatorID != nil && *patch.CalculatorID != analysis.CalculatorID {
		if err := h.authorizeCalculator(principal, policy.ActionUpdate, *patch.CalculatorID); err != nil {
			respondWithError(c, err)
			return
		}
	}

	updated, err := h.analysisService.UpdateAnalysis(analysis.ID, patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(principal.UserID, "UPDATE_ANALYSIS", "analysis", analysis.ID, c.ClientIP(),
		map[string]any{"fields": fields})

	c.JSON(http.StatusOK, gin.H{"analysis": updated})
}

// DeleteAnalysis handles removing an analysis.
// @Summary     Delete analysis
// @Description Remove an analysis
// @Tags        analyses
// @Security    BearerAuth
// @Param       id path string true "Analysis ID"
// @Success     204 "Deleted"
// @Failure     400 {object} ErrorResponse "Invalid analysis ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Analysis not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analyses/{id} [delete]
func (h *AnalysisHandler) DeleteAnalysis(c *gin.Context) {
	principal, analysis, ok := h.loadAuthorized(c, policy.ActionDelete)
	if !ok {
		return
	}

	if err := h.analysisService.DeleteAnalysis(analysis.ID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(principal.UserID, "DELETE_ANALYSIS", "analysis", analysis.ID, c.ClientIP(),
		map[string]any{"calculatorId": analysis.CalculatorID})

	c.Status(http.StatusNoContent)
}

func (h *AnalysisHandler) authorizeCalculator(principal policy.Principal, action policy.Action, calculatorID string) error {
	owner, err := h.owners.calculatorOwner(calculatorID)
	if err != nil {
		return err
	}
	return policy.Authorize(principal, action, policy.Target{Resource: policy.ResourceAnalysis, OwnerID: owner})
}

func (h *AnalysisHandler) loadAuthorized(c *gin.Context, action policy.Action) (policy.Principal, *models.Analysis, bool) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return principal, nil, false
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return principal, nil, false
	}

	analysis, err := h.analysisService.GetAnalysisByID(id)
	if err != nil {
		respondWithError(c, err)
		return principal, nil, false
	}

	if err := h.authorizeCalculator(principal, action, analysis.CalculatorID); err != nil {
		respondWithError(c, err)
		return principal, nil, false
	}
	return principal, analysis, true
}
