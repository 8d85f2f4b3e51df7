package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "nadlan/internal/errors"
	"nadlan/internal/policy"
	"nadlan/internal/services"
)

// pipelineActor is recorded as the audit user for machine-to-machine writes.
const pipelineActor = "pipeline"

// SettingHandler handles the key/value settings store.
type SettingHandler struct {
	settingService services.SettingServicer
	auditService   services.AuditServicer
}

// NewSettingHandler creates a new SettingHandler.
func NewSettingHandler(settingService services.SettingServicer, auditService services.AuditServicer) *SettingHandler {
	return &SettingHandler{settingService: settingService, auditService: auditService}
}

// UpdateSettingRequest is the body of a setting upsert.
type UpdateSettingRequest struct {
	Value       string  `json:"value" binding:"required,max=1000"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

type settingKeyURI struct {
	Key string `uri:"key" binding:"required,setting_key"`
}

// ListSettings handles listing every setting.
// @Summary     List settings
// @Description Every setting ordered by key. Advisor only.
// @Tags        settings
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.Setting "Settings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /settings [get]
func (h *SettingHandler) ListSettings(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := policy.Authorize(principal, policy.ActionList, policy.Target{Resource: policy.ResourceSetting}); err != nil {
		respondWithError(c, err)
		return
	}

	settings, err := h.settingService.ListSettings()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": settings})
}

// GetSetting handles reading one setting.
// @Summary     Get setting
// @Description Read one setting by key
// @Tags        settings
// @Produce     json
// @Security    BearerAuth
// @Param       key path string true "Setting key"
// @Success     200 {object} models.Setting "Setting"
// @Failure     400 {object} ErrorResponse "Invalid key"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Setting not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /settings/{key} [get]
func (h *SettingHandler) GetSetting(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := policy.Authorize(principal, policy.ActionRead, policy.Target{Resource: policy.ResourceSetting}); err != nil {
		respondWithError(c, err)
		return
	}

	var uri settingKeyURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondWithError(c, apperrors.Validation(err))
		return
	}

	setting, err := h.settingService.GetSetting(uri.Key)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"setting": setting})
}

// UpdateSetting handles a setting upsert.
// @Summary     Upsert setting
// @Description Insert the key or overwrite its value. Advisor only.
// @Tags        settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       key     path string               true "Setting key"
// @Param       request body UpdateSettingRequest true "New value"
// @Success     200 {object} models.Setting "Stored setting"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /settings/{key} [put]
func (h *SettingHandler) UpdateSetting(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := policy.Authorize(principal, policy.ActionUpdate, policy.Target{Resource: policy.ResourceSetting}); err != nil {
		respondWithError(c, err)
		return
	}

	h.upsert(c, principal.UserID)
}

// PipelineUpdateSetting handles a setting upsert from a machine caller.
// @Summary     Upsert setting (pipeline)
// @Description Same as the advisor upsert, authenticated with X-API-Key
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Param       X-API-Key header string               true "Pipeline API key"
// @Param       key       path   string               true "Setting key"
// @Param       request   body   UpdateSettingRequest true "New value"
// @Success     200 {object} models.Setting "Stored setting"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Pipeline not configured"
// @Router      /pipeline/settings/{key} [put]
func (h *SettingHandler) PipelineUpdateSetting(c *gin.Context) {
	h.upsert(c, pipelineActor)
}

func (h *SettingHandler) upsert(c *gin.Context, actor string) {
	var uri settingKeyURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondWithError(c, apperrors.Validation(err))
		return
	}

	var req UpdateSettingRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	setting, err := h.settingService.UpdateSetting(uri.Key, req.Value, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, "UPDATE_SETTING", "setting", setting.Key, c.ClientIP(),
		map[string]any{"value": setting.Value})

	c.JSON(http.StatusOK, gin.H{"setting": setting})
}
