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

// InvestmentHandler handles investment options within calculators.
type InvestmentHandler struct {
	investmentService services.InvestmentServicer
	auditService      services.AuditServicer
	owners            ownerResolver
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(investmentService services.InvestmentServicer, calculatorService services.CalculatorServicer, auditService services.AuditServicer) *InvestmentHandler {
	return &InvestmentHandler{
		investmentService: investmentService,
		auditService:      auditService,
		owners:            ownerResolver{calculators: calculatorService},
	}
}

type investmentListQuery struct {
	pagination.PageRequest
	CalculatorID string `form:"calculatorId" binding:"required,uuid"`
}

// CreateInvestment handles adding an option to a calculator.
// @Summary     Create investment
// @Description Add a property as an option of a calculator. Selecting it clears the previous selection.
// @Tags        investments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.CreateInvestmentInput true "Investment details"
// @Success     201 {object} models.Investment "Investment created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Calculator or property not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments [post]
func (h *InvestmentHandler) CreateInvestment(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.CreateInvestmentInput
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.authorizeCalculator(principal, policy.ActionCreate, req.CalculatorID, nil); err != nil {
		respondWithError(c, err)
		return
	}

	inv, err := h.investmentService.CreateInvestment(req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(principal.UserID, "CREATE_INVESTMENT", "investment", inv.ID, c.ClientIP(),
		map[string]any{"calculatorId": inv.CalculatorID, "propertyId": inv.PropertyID, "isSelected": inv.IsSelected})

	c.JSON(http.StatusCreated, gin.H{"investment": inv})
}

// ListInvestments handles listing a calculator's options.
// @Summary     List investments
// @Description Options of one calculator with effective price, rent and gross yield
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Param       calculatorId query string true  "Calculator ID"
// @Param       page         query int    false "Page number (default 1)"
// @Param       pageSize     query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Investment] "Paginated investments"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Calculator not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments [get]
func (h *InvestmentHandler) ListInvestments(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q investmentListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.Validation(err))
		return
	}

	if err := h.authorizeCalculator(principal, policy.ActionList, q.CalculatorID, nil); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.investmentService.ListInvestments(q.CalculatorID, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetInvestment handles retrieving an investment.
// @Summary     Get investment
// @Description Get an investment option by ID
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Investment ID"
// @Success     200 {object} models.Investment "Investment"
// @Failure     400 {object} ErrorResponse "Invalid investment ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments/{id} [get]
func (h *InvestmentHandler) GetInvestment(c *gin.Context) {
	_, inv, ok := h.loadAuthorized(c, policy.ActionRead, nil)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"investment": inv})
}

// UpdateInvestment handles an investment patch.
// @Summary     Update investment
// @Description Investors may only toggle hasFurniture, hasPropertyManagement and hasRealEstateAgent. A null override clears it.
// @Tags        investments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Investment ID"
// @Param       request body services.InvestmentPatch true "Fields to change"
// @Success     200 {object} models.Investment "Updated investment"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments/{id} [patch]
func (h *InvestmentHandler) UpdateInvestment(c *gin.Context) {
	var patch services.InvestmentPatch
	fields, err := bindPatch(c, &patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	principal, inv, ok := h.loadAuthorized(c, policy.ActionUpdate, fields)
	if !ok {
		return
	}

	updated, err := h.investmentService.UpdateInvestment(inv.ID, patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(principal.UserID, "UPDATE_INVESTMENT", "investment", inv.ID, c.ClientIP(),
		map[string]any{"fields": fields})

	c.JSON(http.StatusOK, gin.H{"investment": updated})
}

// DeleteInvestment handles removing an investment and its analyses.
// @Summary     Delete investment
// @Description Removes the option and every analysis that references it
// @Tags        investments
// @Security    BearerAuth
// @Param       id path string true "Investment ID"
// @Success     204 "Deleted"
// @Failure     400 {object} ErrorResponse "Invalid investment ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments/{id} [delete]
func (h *InvestmentHandler) DeleteInvestment(c *gin.Context) {
	principal, inv, ok := h.loadAuthorized(c, policy.ActionDelete, nil)
	if !ok {
		return
	}

	if err := h.investmentService.DeleteInvestment(inv.ID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(principal.UserID, "DELETE_INVESTMENT", "investment", inv.ID, c.ClientIP(),
		map[string]any{"calculatorId": inv.CalculatorID})

	c.Status(http.StatusNoContent)
}

func (h *InvestmentHandler) authorizeCalculator(principal policy.Principal, action policy.Action, calculatorID string, fields []string) error {
	owner, err := h.owners.calculatorOwner(calculatorID)
	if err != nil {
		return err
	}
	return policy.Authorize(principal, action, policy.Target{Resource: policy.ResourceInvestment, OwnerID: owner, Fields: fields})
}

func (h *InvestmentHandler) loadAuthorized(c *gin.Context, action policy.Action, fields []string) (policy.Principal, *models.Investment, bool) {
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

	inv, err := h.investmentService.GetInvestmentByID(id)
	if err != nil {
		respondWithError(c, err)
		return principal, nil, false
	}

	if err := h.authorizeCalculator(principal, action, inv.CalculatorID, fields); err != nil {
		respondWithError(c, err)
		return principal, nil, false
	}
	return principal, inv, true
}
