package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "nadlan/internal/errors"
	"nadlan/internal/pagination"
	"nadlan/internal/policy"
	"nadlan/internal/services"
)

// PropertyHandler handles the property catalog.
type PropertyHandler struct {
	propertyService services.PropertyServicer
	auditService    services.AuditServicer
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(propertyService services.PropertyServicer, auditService services.AuditServicer) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService, auditService: auditService}
}

type propertyListQuery struct {
	pagination.PageRequest
	Location      string `form:"location" binding:"max=200"`
	AvailableOnly bool   `form:"available"`
}

// CreateProperty handles adding a property.
// @Summary     Create property
// @Description Add a listing to the catalog. Advisor only.
// @Tags        properties
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.CreatePropertyInput true "Property details"
// @Success     201 {object} models.Property "Property created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /properties [post]
func (h *PropertyHandler) CreateProperty(c *gin.Context) {
	principal, err := h.authorize(c, policy.ActionCreate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.CreatePropertyInput
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	property, err := h.propertyService.CreateProperty(req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(principal.UserID, "CREATE_PROPERTY", "property", property.ID, c.ClientIP(),
		map[string]any{"name": property.Name, "location": property.Location})

	c.JSON(http.StatusCreated, gin.H{"property": property})
}

// ListProperties handles listing the catalog.
// @Summary     List properties
// @Description Paginated catalog, filterable by location substring and availability
// @Tags        properties
// @Produce     json
// @Security    BearerAuth
// @Param       location  query string false "Location contains (case-insensitive)"
// @Param       available query bool   false "Only available listings"
// @Param       page      query int    false "Page number (default 1)"
// @Param       pageSize  query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Property] "Paginated properties"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /properties [get]
func (h *PropertyHandler) ListProperties(c *gin.Context) {
	if _, err := h.authorize(c, policy.ActionList); err != nil {
		respondWithError(c, err)
		return
	}

	var q propertyListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.Validation(err))
		return
	}

	result, err := h.propertyService.ListProperties(services.PropertyFilter{
		Location:      q.Location,
		AvailableOnly: q.AvailableOnly,
	}, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetProperty handles retrieving a property.
// @Summary     Get property
// @Description Get a catalog listing by ID
// @Tags        properties
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Property ID"
// @Success     200 {object} models.Property "Property"
// @Failure     400 {object} ErrorResponse "Invalid property ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Property not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /properties/{id} [get]
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	if _, err := h.authorize(c, policy.ActionRead); err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	property, err := h.propertyService.GetPropertyByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"property": property})
}

// UpdateProperty handles a property patch.
// @Summary     Update property
// @Description Advisor only.
// @Tags        properties
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                 true "Property ID"
// @Param       request body services.PropertyPatch true "Fields to change"
// @Success     200 {object} models.Property "Updated property"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Property not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /properties/{id} [patch]
func (h *PropertyHandler) UpdateProperty(c *gin.Context) {
	principal, err := h.authorize(c, policy.ActionUpdate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var patch services.PropertyPatch
	fields, err := bindPatch(c, &patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	property, err := h.propertyService.UpdateProperty(id, patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(principal.UserID, "UPDATE_PROPERTY", "property", id, c.ClientIP(),
		map[string]any{"fields": fields})

	c.JSON(http.StatusOK, gin.H{"property": property})
}

// DeleteProperty handles removing a property.
// @Summary     Delete property
// @Description Advisor only. Fails with 409 while any investment references the property.
// @Tags        properties
// @Security    BearerAuth
// @Param       id path string true "Property ID"
// @Success     204 "Deleted"
// @Failure     400 {object} ErrorResponse "Invalid property ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Property not found"
// @Failure     409 {object} ErrorResponse "Property in use"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /properties/{id} [delete]
func (h *PropertyHandler) DeleteProperty(c *gin.Context) {
	principal, err := h.authorize(c, policy.ActionDelete)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.propertyService.DeleteProperty(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(principal.UserID, "DELETE_PROPERTY", "property", id, c.ClientIP(), nil)
	c.Status(http.StatusNoContent)
}

func (h *PropertyHandler) authorize(c *gin.Context, action policy.Action) (policy.Principal, error) {
	principal, err := getPrincipal(c)
	if err != nil {
		return principal, err
	}
	return principal, policy.Authorize(principal, action, policy.Target{Resource: policy.ResourceProperty})
}
