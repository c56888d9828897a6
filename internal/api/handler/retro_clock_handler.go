package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"timeclock/internal/api/middleware"
	"timeclock/internal/dto"
	"timeclock/internal/model"
	"timeclock/internal/service"
	"timeclock/pkg/response"
)

// RetroClockHandler 补打卡申请模块 HTTP 处理器
type RetroClockHandler struct {
	retroSvc service.RetroClockService
}

// NewRetroClockHandler 创建 RetroClockHandler
func NewRetroClockHandler(retroSvc service.RetroClockService) *RetroClockHandler {
	return &RetroClockHandler{retroSvc: retroSvc}
}

// Create 提交补打卡申请
// POST /api/v1/retro-clocks
func (h *RetroClockHandler) Create(c *gin.Context) {
	var req dto.CreateRetroClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	retro, err := h.retroSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleRetroError(c, err)
		return
	}

	response.Created(c, retro)
}

// List 补打卡申请列表
// GET /api/v1/retro-clocks
func (h *RetroClockHandler) List(c *gin.Context) {
	var q dto.RequestListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	userID, ok := resolveTargetUser(c, q.UserID)
	if !ok {
		return
	}
	if c.GetString(middleware.CtxRole) != model.RoleAdmin {
		q.UserID = userID
	}

	list, err := h.retroSvc.List(c.Request.Context(), &q)
	if err != nil {
		h.handleRetroError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Get 补打卡申请详情
// GET /api/v1/retro-clocks/:id
func (h *RetroClockHandler) Get(c *gin.Context) {
	retro, err := h.retroSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleRetroError(c, err)
		return
	}
	if _, ok := resolveTargetUser(c, retro.UserID); !ok {
		return
	}

	response.OK(c, retro)
}

// Approve 通过补打卡申请，生成 RETRO_APPROVED 事件并重算当日
// POST /api/v1/retro-clocks/:id/approve
func (h *RetroClockHandler) Approve(c *gin.Context) {
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	approverID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	retro, err := h.retroSvc.Approve(c.Request.Context(), c.Param("id"), &req, approverID)
	if err != nil {
		h.handleRetroError(c, err)
		return
	}

	response.OK(c, retro)
}

// Reject 驳回补打卡申请
// POST /api/v1/retro-clocks/:id/reject
func (h *RetroClockHandler) Reject(c *gin.Context) {
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	approverID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	retro, err := h.retroSvc.Reject(c.Request.Context(), c.Param("id"), &req, approverID)
	if err != nil {
		h.handleRetroError(c, err)
		return
	}

	response.OK(c, retro)
}

// Stats 月度补打卡统计
// GET /api/v1/retro-clocks/stats?year_month=2024-03[&user_id=xxx]
func (h *RetroClockHandler) Stats(c *gin.Context) {
	var q dto.MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	userID, ok := resolveTargetUser(c, c.Query("user_id"))
	if !ok {
		return
	}

	stats, err := h.retroSvc.Stats(c.Request.Context(), userID, q.YearMonth)
	if err != nil {
		h.handleRetroError(c, err)
		return
	}

	response.OK(c, stats)
}

func (h *RetroClockHandler) handleRetroError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRetroNotFound):
		response.NotFound(c, 18101, service.ErrRetroNotFound.Error())
	case errors.Is(err, service.ErrRetroInFuture):
		response.Unprocessable(c, 18102, service.ErrRetroInFuture.Error())
	case errors.Is(err, service.ErrRetroTypeInvalid):
		response.BadRequest(c, 18103, service.ErrRetroTypeInvalid.Error())
	case errors.Is(err, service.ErrRequestNotPending):
		response.Conflict(c, 18003, service.ErrRequestNotPending.Error())
	default:
		handleCommonError(c, err)
	}
}
