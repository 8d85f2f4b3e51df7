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

// CalculatorHandler handles calculator requests.
type CalculatorHandler struct {
	calculatorService services.CalculatorServicer
	auditService      services.AuditServicer
}

// NewCalculatorHandler creates a new CalculatorHandler.
func NewCalculatorHandler(calculatorService services.CalculatorServicer, auditService services.AuditServicer) *CalculatorHandler {
	return &CalculatorHandler{calculatorService: calculatorService, auditService: auditService}
}

// calculatorListQuery holds the query string of a calculator listing.
type calculatorListQuery struct {
	pagination.PageRequest
	UserID string                  `form:"userId" binding:"omitempty,uuid"`
	Status models.CalculatorStatus `form:"status" binding:"omitempty,calculator_status"`
}

type recentQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// CreateCalculator handles creating a calculator.
// @Summary     Create calculator
// @Description Advisors create calculators for any user; investors only for themselves.
// @Tags        calculators
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.CreateCalculatorInput true "Calculator details"
// @Success     201 {object} models.Calculator "Calculator created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /calculators [post]
func (h *CalculatorHandler) CreateCalculator(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.CreateCalculatorInput
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	target := policy.Target{Resource: policy.ResourceCalculator, OwnerID: req.UserID}
	if err := policy.Authorize(principal, policy.ActionCreate, target); err != nil {
		respondWithError(c, err)
		return
	}

	calc, err := h.calculatorService.CreateCalculator(req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(principal.UserID, "CREATE_CALCULATOR", "calculator", calc.ID, c.ClientIP(),
		map[string]any{"name": calc.Name, "userId": calc.UserID})

	c.JSON(http.StatusCreated, gin.H{"calculator": calc})
}

// ListCalculators handles listing calculators.
// @Summary     List calculators
// @Description Advisors see every calculator (optionally one user's); investors see their own.
// @Tags        calculators
// @Produce     json
// @Security    BearerAuth
// @Param       userId   query string false "Owner filter (advisor only)"
// @Param       status   query string false "Status filter"
// @Param       page     query int    false "Page number (default 1)"
// @Param       pageSize query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Calculator] "Paginated calculators"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /calculators [get]
func (h *CalculatorHandler) ListCalculators(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q calculatorListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.Validation(err))
		return
	}

	filter := services.CalculatorFilter{UserID: q.UserID, Status: q.Status}
	if !principal.IsAdvisor() {
		filter.UserID = principal.UserID
	}

	result, err := h.calculatorService.ListCalculators(filter, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RecentCalculators handles listing recently updated calculators.
// @Summary     Recent calculators
// @Description Most recently updated calculators visible to the caller
// @Tags        calculators
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Number of calculators (default 5, max 50)"
// @Success     200 {array}  models.Calculator "Recent calculators"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /calculators/recent [get]
func (h *CalculatorHandler) RecentCalculators(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q recentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.Validation(err))
		return
	}

	userID := ""
	if !principal.IsAdvisor() {
		userID = principal.UserID
	}

	calcs, err := h.calculatorService.RecentCalculators(userID, q.Limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": calcs})
}

// GetCalculator handles retrieving a calculator.
// @Summary     Get calculator
// @Description Get a calculator by ID
// @Tags        calculators
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Calculator ID"
// @Success     200 {object} models.Calculator "Calculator"
// @Failure     400 {object} ErrorResponse "Invalid calculator ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Calculator not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /calculators/{id} [get]
func (h *CalculatorHandler) GetCalculator(c *gin.Context) {
	_, calc, ok := h.loadAuthorized(c, policy.ActionRead, nil)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"calculator": calc})
}

// UpdateCalculator handles a calculator patch.
// @Summary     Update calculator
// @Description Investors may only change selfEquity, hasMortgage, hasPropertyInIsrael and investmentPreference.
// @Tags        calculators
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Calculator ID"
// @Param       request body services.CalculatorPatch true "Fields to change"
// @Success     200 {object} models.Calculator "Updated calculator"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Calculator not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /calculators/{id} [patch]
func (h *CalculatorHandler) UpdateCalculator(c *gin.Context) {
	var patch services.CalculatorPatch
	fields, err := bindPatch(c, &patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	principal, calc, ok := h.loadAuthorized(c, policy.ActionUpdate, fields)
	if !ok {
		return
	}

	updated, err := h.calculatorService.UpdateCalculator(calc.ID, patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(principal.UserID, "UPDATE_CALCULATOR", "calculator", calc.ID, c.ClientIP(),
		map[string]any{"fields": fields})

	c.JSON(http.StatusOK, gin.H{"calculator": updated})
}

// DuplicateCalculator handles copying a calculator.
// @Summary     Duplicate calculator
// @Description Copy a calculator and its investments. Analyses are not copied.
// @Tags        calculators
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Calculator ID"
// @Success     201 {object} models.Calculator "Copy created"
// @Failure     400 {object} ErrorResponse "Invalid calculator ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Calculator not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /calculators/{id}/duplicate [post]
func (h *CalculatorHandler) DuplicateCalculator(c *gin.Context) {
	principal, calc, ok := h.loadAuthorized(c, policy.ActionCreate, nil)
	if !ok {
		return
	}

	copied, err := h.calculatorService.DuplicateCalculator(calc.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(principal.UserID, "DUPLICATE_CALCULATOR", "calculator", copied.ID, c.ClientIP(),
		map[string]any{"sourceId": calc.ID})

	c.JSON(http.StatusCreated, gin.H{"calculator": copied})
}

// DeleteCalculator handles deleting a calculator with its investments and analyses.
// @Summary     Delete calculator
// @Description Advisor only. Removes the calculator's investments and analyses too.
// @Tags        calculators
// @Security    BearerAuth
// @Param       id path string true "Calculator ID"
// @Success     204 "Deleted"
// @Failure     400 {object} ErrorResponse "Invalid calculator ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Calculator not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /calculators/{id} [delete]
func (h *CalculatorHandler) DeleteCalculator(c *gin.Context) {
	principal, calc, ok := h.loadAuthorized(c, policy.ActionDelete, nil)
	if !ok {
		return
	}

	if err := h.calculatorService.DeleteCalculator(calc.ID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(principal.UserID, "DELETE_CALCULATOR", "calculator", calc.ID, c.ClientIP(),
		map[string]any{"name": calc.Name})

	c.Status(http.StatusNoContent)
}

// loadAuthorized resolves the caller and the calculator named by the path,
// then runs the access policy. On failure the response is already written.
func (h *CalculatorHandler) loadAuthorized(c *gin.Context, action policy.Action, fields []string) (policy.Principal, *models.Calculator, bool) {
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

	calc, err := h.calculatorService.GetCalculatorByID(id)
	if err != nil {
		respondWithError(c, err)
		return principal, nil, false
	}

	target := policy.Target{Resource: policy.ResourceCalculator, OwnerID: calc.UserID, Fields: fields}
	if err := policy.Authorize(principal, action, target); err != nil {
		respondWithError(c, err)
		return principal, nil, false
	}
	return principal, calc, true
}
