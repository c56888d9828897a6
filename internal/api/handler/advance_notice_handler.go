package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"timeclock/internal/dto"
	"timeclock/internal/service"
	"timeclock/pkg/response"
)

// AdvanceNoticeHandler 预先告知模块 HTTP 处理器
type AdvanceNoticeHandler struct {
	noticeSvc service.AdvanceNoticeService
}

// NewAdvanceNoticeHandler 创建 AdvanceNoticeHandler
func NewAdvanceNoticeHandler(noticeSvc service.AdvanceNoticeService) *AdvanceNoticeHandler {
	return &AdvanceNoticeHandler{noticeSvc: noticeSvc}
}

// Create 提交迟到 / 请假预先告知
// POST /api/v1/advance-notices
func (h *AdvanceNoticeHandler) Create(c *gin.Context) {
	var req dto.CreateAdvanceNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	notice, err := h.noticeSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleNoticeError(c, err)
		return
	}

	response.Created(c, notice)
}

// ListMine 我的预先告知
// GET /api/v1/advance-notices?is_used=false
func (h *AdvanceNoticeHandler) ListMine(c *gin.Context) {
	var q dto.AdvanceNoticeListRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	notices, err := h.noticeSvc.ListMine(c.Request.Context(), userID, q.IsUsed)
	if err != nil {
		h.handleNoticeError(c, err)
		return
	}

	response.OK(c, gin.H{"list": notices})
}

// Stats 月度预先告知统计
// GET /api/v1/advance-notices/stats?year_month=2024-03[&user_id=xxx]
func (h *AdvanceNoticeHandler) Stats(c *gin.Context) {
	var q dto.MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	userID, ok := resolveTargetUser(c, c.Query("user_id"))
	if !ok {
		return
	}

	stats, err := h.noticeSvc.Stats(c.Request.Context(), userID, q.YearMonth)
	if err != nil {
		h.handleNoticeError(c, err)
		return
	}

	response.OK(c, stats)
}

func (h *AdvanceNoticeHandler) handleNoticeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoticeDatePast):
		response.Unprocessable(c, 15001, service.ErrNoticeDatePast.Error())
	case errors.Is(err, service.ErrNoticeTooLate):
		response.Unprocessable(c, 15002, service.ErrNoticeTooLate.Error())
	default:
		handleCommonError(c, err)
	}
}
