package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"timeclock/internal/dto"
	"timeclock/internal/service"
	"timeclock/pkg/response"
)

// SystemConfigHandler 系统配置模块 HTTP 处理器
type SystemConfigHandler struct {
	configSvc service.SystemConfigService
}

// NewSystemConfigHandler 创建 SystemConfigHandler
func NewSystemConfigHandler(configSvc service.SystemConfigService) *SystemConfigHandler {
	return &SystemConfigHandler{configSvc: configSvc}
}

// ListConfigs 配置项列表
// GET /api/v1/system-configs[?category=attendance]
func (h *SystemConfigHandler) ListConfigs(c *gin.Context) {
	var (
		list []dto.SystemConfigResponse
		err  error
	)
	if category := c.Query("category"); category != "" {
		list, err = h.configSvc.GetByCategory(c.Request.Context(), category)
	} else {
		list, err = h.configSvc.GetAll(c.Request.Context())
	}
	if err != nil {
		h.handleConfigError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// UpdateConfig 更新单个配置项，成功后通知其他实例刷新缓存
// PUT /api/v1/system-configs/:key
func (h *SystemConfigHandler) UpdateConfig(c *gin.Context) {
	var req dto.UpdateSystemConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cfg, err := h.configSvc.Update(c.Request.Context(), c.Param("key"), &req, callerID)
	if err != nil {
		h.handleConfigError(c, err)
		return
	}

	response.OK(c, cfg)
}

// ReloadConfig 清空配置缓存并广播
// POST /api/v1/system-configs/reload
func (h *SystemConfigHandler) ReloadConfig(c *gin.Context) {
	if err := h.configSvc.Reload(c.Request.Context()); err != nil {
		h.handleConfigError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleConfigError 统一处理系统配置模块业务错误
func (h *SystemConfigHandler) handleConfigError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConfigNotFound):
		response.NotFound(c, 17001, service.ErrConfigNotFound.Error())
	case errors.Is(err, service.ErrConfigValueInvalid):
		response.BadRequest(c, 17002, err.Error())
	default:
		handleCommonError(c, err)
	}
}
