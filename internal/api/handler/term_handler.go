package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"timeclock/internal/dto"
	"timeclock/internal/service"
	"timeclock/pkg/response"
)

// TermHandler 实习期模块 HTTP 处理器
type TermHandler struct {
	scheduleSvc service.ScheduleService
}

// NewTermHandler 创建 TermHandler
func NewTermHandler(scheduleSvc service.ScheduleService) *TermHandler {
	return &TermHandler{scheduleSvc: scheduleSvc}
}

// ListTerms 实习期列表
// GET /api/v1/terms?user_id=xxx（实习生省略 user_id 查看自己的）
func (h *TermHandler) ListTerms(c *gin.Context) {
	var q dto.TermListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	userID, ok := resolveTargetUser(c, q.UserID)
	if !ok {
		return
	}

	terms, err := h.scheduleSvc.ListTerms(c.Request.Context(), userID)
	if err != nil {
		h.handleTermError(c, err)
		return
	}

	response.OK(c, gin.H{"list": terms})
}

// CreateTerm 创建实习期（PENDING）
// POST /api/v1/terms
func (h *TermHandler) CreateTerm(c *gin.Context) {
	var req dto.CreateTermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	term, err := h.scheduleSvc.CreateTerm(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleTermError(c, err)
		return
	}

	response.Created(c, term)
}

// UpdateTerm 修改待确认的实习期
// PUT /api/v1/terms/:id
func (h *TermHandler) UpdateTerm(c *gin.Context) {
	var req dto.UpdateTermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	term, err := h.scheduleSvc.UpdateTerm(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleTermError(c, err)
		return
	}

	response.OK(c, term)
}

// ConfirmTerm 确认实习期，生效后参与排班解析
// POST /api/v1/terms/:id/confirm
func (h *TermHandler) ConfirmTerm(c *gin.Context) {
	h.transition(c, h.scheduleSvc.ConfirmTerm)
}

// CancelTerm 取消实习期
// POST /api/v1/terms/:id/cancel
func (h *TermHandler) CancelTerm(c *gin.Context) {
	h.transition(c, h.scheduleSvc.CancelTerm)
}

type termTransition func(ctx context.Context, id string, version int, callerID string) (*dto.TermResponse, error)

func (h *TermHandler) transition(c *gin.Context, fn termTransition) {
	var req dto.TermVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	term, err := fn(c.Request.Context(), c.Param("id"), req.Version, callerID)
	if err != nil {
		h.handleTermError(c, err)
		return
	}

	response.OK(c, term)
}

// handleTermError 统一处理实习期模块业务错误
func (h *TermHandler) handleTermError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTermNotFound):
		response.NotFound(c, 13001, service.ErrTermNotFound.Error())
	case errors.Is(err, service.ErrTermOverlap):
		response.Conflict(c, 13002, service.ErrTermOverlap.Error())
	case errors.Is(err, service.ErrTermDateInvalid):
		response.BadRequest(c, 13003, service.ErrTermDateInvalid.Error())
	case errors.Is(err, service.ErrTermNotPending):
		response.Conflict(c, 13004, service.ErrTermNotPending.Error())
	case errors.Is(err, service.ErrScheduleInvalid):
		response.Unprocessable(c, 13005, err.Error())
	default:
		handleCommonError(c, err)
	}
}
