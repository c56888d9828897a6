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

// LeaveHandler 请假申请模块 HTTP 处理器
type LeaveHandler struct {
	leaveSvc service.LeaveService
}

// NewLeaveHandler 创建 LeaveHandler
func NewLeaveHandler(leaveSvc service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaveSvc: leaveSvc}
}

// Create 提交请假申请
// POST /api/v1/leave-requests
func (h *LeaveHandler) Create(c *gin.Context) {
	var req dto.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	leave, err := h.leaveSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleLeaveError(c, err)
		return
	}

	response.Created(c, leave)
}

// List 请假申请列表，实习生只能看到自己的
// GET /api/v1/leave-requests
func (h *LeaveHandler) List(c *gin.Context) {
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

	list, err := h.leaveSvc.List(c.Request.Context(), &q)
	if err != nil {
		h.handleLeaveError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Get 请假申请详情
// GET /api/v1/leave-requests/:id
func (h *LeaveHandler) Get(c *gin.Context) {
	leave, err := h.leaveSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleLeaveError(c, err)
		return
	}
	if _, ok := resolveTargetUser(c, leave.UserID); !ok {
		return
	}

	response.OK(c, leave)
}

// Approve 通过请假申请（管理员）
// POST /api/v1/leave-requests/:id/approve
func (h *LeaveHandler) Approve(c *gin.Context) {
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	approverID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	leave, err := h.leaveSvc.Approve(c.Request.Context(), c.Param("id"), &req, approverID)
	if err != nil {
		h.handleLeaveError(c, err)
		return
	}

	response.OK(c, leave)
}

// Reject 驳回请假申请（管理员）
// POST /api/v1/leave-requests/:id/reject
func (h *LeaveHandler) Reject(c *gin.Context) {
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	approverID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	leave, err := h.leaveSvc.Reject(c.Request.Context(), c.Param("id"), &req, approverID)
	if err != nil {
		h.handleLeaveError(c, err)
		return
	}

	response.OK(c, leave)
}

// Stats 月度请假统计
// GET /api/v1/leave-requests/stats?year_month=2024-03[&user_id=xxx]
func (h *LeaveHandler) Stats(c *gin.Context) {
	var q dto.MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	userID, ok := resolveTargetUser(c, c.Query("user_id"))
	if !ok {
		return
	}

	stats, err := h.leaveSvc.Stats(c.Request.Context(), userID, q.YearMonth)
	if err != nil {
		h.handleLeaveError(c, err)
		return
	}

	response.OK(c, stats)
}

// handleLeaveError 统一处理请假模块业务错误
func (h *LeaveHandler) handleLeaveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLeaveNotFound):
		response.NotFound(c, 18001, service.ErrLeaveNotFound.Error())
	case errors.Is(err, service.ErrLeaveTimeInvalid):
		response.BadRequest(c, 18002, service.ErrLeaveTimeInvalid.Error())
	case errors.Is(err, service.ErrRequestNotPending):
		response.Conflict(c, 18003, service.ErrRequestNotPending.Error())
	default:
		handleCommonError(c, err)
	}
}
