package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nadlan/internal/policy"
	"nadlan/internal/services"
)

// UserHandler handles investor listings and profile updates.
type UserHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer, auditService services.AuditServicer) *UserHandler {
	return &UserHandler{userService: userService, auditService: auditService}
}

// ListInvestors handles listing investors.
// @Summary     List investors
// @Description Paginated list of investor accounts. Advisor only.
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       page     query int false "Page number (default 1)"
// @Param       pageSize query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.User] "Paginated investors"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investors [get]
func (h *UserHandler) ListInvestors(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := policy.Authorize(principal, policy.ActionList, policy.Target{Resource: policy.ResourceUser}); err != nil {
		respondWithError(c, err)
		return
	}

	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.userService.ListInvestors(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUser handles retrieving a user.
// @Summary     Get user
// @Description Advisors may read any user; investors only themselves.
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} models.User "User"
// @Failure     400 {object} ErrorResponse "Invalid user ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := policy.Authorize(principal, policy.ActionRead, policy.Target{Resource: policy.ResourceUser, OwnerID: id}); err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateUser handles a profile update.
// @Summary     Update user
// @Description Advisors may change any user; investors only their own name, email and phone.
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "User ID"
// @Param       request body services.UserPatch true "Fields to change"
// @Success     200 {object} models.User "Updated user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users/{id} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var patch services.UserPatch
	fields, err := bindPatch(c, &patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	target := policy.Target{Resource: policy.ResourceUser, OwnerID: id, Fields: fields}
	if err := policy.Authorize(principal, policy.ActionUpdate, target); err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.UpdateUser(id, patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(principal.UserID, "UPDATE_USER", "user", id, c.ClientIP(),
		map[string]any{"fields": fields})

	c.JSON(http.StatusOK, gin.H{"user": user})
}
