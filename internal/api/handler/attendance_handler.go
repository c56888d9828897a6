package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"timeclock/internal/dto"
	"timeclock/internal/service"
	"timeclock/pkg/response"
	"timeclock/pkg/timeutil"
)

// AttendanceHandler 考勤打卡模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// ── 打卡 ──

// ClockIn 上班打卡（onsite / remote）
// POST /api/v1/attendance/clock-in
func (h *AttendanceHandler) ClockIn(c *gin.Context) {
	var req dto.ClockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.ClockIn(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.Created(c, result)
}

// ClockOut 下班打卡
// POST /api/v1/attendance/clock-out
func (h *AttendanceHandler) ClockOut(c *gin.Context) {
	h.clockAction(c, h.attendanceSvc.ClockOut)
}

// BreakStart 开始外出休息
// POST /api/v1/attendance/break-start
func (h *AttendanceHandler) BreakStart(c *gin.Context) {
	h.clockAction(c, h.attendanceSvc.BreakStart)
}

// BreakEnd 结束外出休息
// POST /api/v1/attendance/break-end
func (h *AttendanceHandler) BreakEnd(c *gin.Context) {
	h.clockAction(c, h.attendanceSvc.BreakEnd)
}

type clockActionFunc func(ctx context.Context, userID string, req *dto.ClockActionRequest) (*dto.ClockResponse, error)

// clockAction 请求体可省略
func (h *AttendanceHandler) clockAction(c *gin.Context, fn clockActionFunc) {
	var req dto.ClockActionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.Created(c, result)
}

// ── 查询 ──

// GetTodayStatus 今日打卡状态
// GET /api/v1/attendance/today
func (h *AttendanceHandler) GetTodayStatus(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	status, err := h.attendanceSvc.GetTodayStatus(c.Request.Context(), userID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, status)
}

// GetDaySummary 单日汇总
// GET /api/v1/attendance/day?date=2024-03-04[&user_id=xxx]
func (h *AttendanceHandler) GetDaySummary(c *gin.Context) {
	var q dto.DayQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	userID, ok := resolveTargetUser(c, c.Query("user_id"))
	if !ok {
		return
	}

	summary, err := h.attendanceSvc.GetDaySummary(c.Request.Context(), userID, q.Date)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, summary)
}

// GetMonthSummary 月度出勤汇总
// GET /api/v1/attendance/month?year_month=2024-03[&user_id=xxx]
func (h *AttendanceHandler) GetMonthSummary(c *gin.Context) {
	var q dto.MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	userID, ok := resolveTargetUser(c, c.Query("user_id"))
	if !ok {
		return
	}

	summary, err := h.attendanceSvc.GetMonthSummary(c.Request.Context(), userID, q.YearMonth)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, summary)
}

// RecomputeDay 重新计算某实习生某日的汇总（管理员）
// POST /api/v1/attendance/recompute
func (h *AttendanceHandler) RecomputeDay(c *gin.Context) {
	var req dto.RecomputeDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	date, err := timeutil.ParseDate(req.Date)
	if err != nil {
		handleCommonError(c, service.ErrInvalidDate)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.attendanceSvc.RecomputeDay(ctx, req.UserID, date); err != nil {
		h.handleAttendanceError(c, err)
		return
	}
	summary, err := h.attendanceSvc.GetDaySummary(ctx, req.UserID, req.Date)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, summary)
}

// handleAttendanceError 统一处理考勤模块业务错误
func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSummaryNotFound):
		response.NotFound(c, 14001, service.ErrSummaryNotFound.Error())
	case errors.Is(err, service.ErrAlreadyClockedIn):
		response.Conflict(c, 14002, service.ErrAlreadyClockedIn.Error())
	case errors.Is(err, service.ErrNotClockedIn):
		response.Conflict(c, 14003, service.ErrNotClockedIn.Error())
	case errors.Is(err, service.ErrAlreadyClockedOut):
		response.Conflict(c, 14004, service.ErrAlreadyClockedOut.Error())
	case errors.Is(err, service.ErrAlreadyOnBreak):
		response.Conflict(c, 14005, service.ErrAlreadyOnBreak.Error())
	case errors.Is(err, service.ErrNoActiveBreak):
		response.Conflict(c, 14006, service.ErrNoActiveBreak.Error())
	default:
		handleCommonError(c, err)
	}
}
