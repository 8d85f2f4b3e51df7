package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nadlan/internal/policy"
	"nadlan/internal/services"
)

// DashboardHandler serves dashboard aggregates.
type DashboardHandler struct {
	dashboardService services.DashboardServicer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService services.DashboardServicer) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Overview handles the dashboard counts.
// @Summary     Dashboard overview
// @Description Counts of investors, calculators, properties, investments and analyses. Investors see counts for their own calculators.
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.DashboardOverview "Counts"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboard/overview [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := policy.Authorize(principal, policy.ActionRead, policy.Target{Resource: policy.ResourceDashboard}); err != nil {
		respondWithError(c, err)
		return
	}

	var ownerID string
	if !principal.IsAdvisor() {
		ownerID = principal.UserID
	}
	overview, err := h.dashboardService.Overview(ownerID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
