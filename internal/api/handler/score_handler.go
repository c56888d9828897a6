package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"timeclock/internal/dto"
	"timeclock/internal/service"
	"timeclock/pkg/response"
)

// ScoreHandler 月度积分模块 HTTP 处理器
type ScoreHandler struct {
	scoreSvc service.ScoreService
}

// NewScoreHandler 创建 ScoreHandler
func NewScoreHandler(scoreSvc service.ScoreService) *ScoreHandler {
	return &ScoreHandler{scoreSvc: scoreSvc}
}

// GetScore 某实习生的月度积分，尚未计算时即时计算
// GET /api/v1/scores/detail?year_month=2024-03[&user_id=xxx]
func (h *ScoreHandler) GetScore(c *gin.Context) {
	var q dto.MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	userID, ok := resolveTargetUser(c, c.Query("user_id"))
	if !ok {
		return
	}

	score, err := h.scoreSvc.GetMonthlyScore(c.Request.Context(), userID, q.YearMonth)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OK(c, score)
}

// Ranking 某月全部积分（按最终得分降序）
// GET /api/v1/scores?year_month=2024-03
func (h *ScoreHandler) Ranking(c *gin.Context) {
	var q dto.MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	scores, err := h.scoreSvc.GetAllScoresForMonth(c.Request.Context(), q.YearMonth)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OK(c, gin.H{"list": scores})
}

// Calculate 全量重算单个实习生的月度积分（丢弃手动调整）
// POST /api/v1/scores/:user_id/calculate
func (h *ScoreHandler) Calculate(c *gin.Context) {
	var req dto.YearMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	score, err := h.scoreSvc.CalculateMonthlyScore(c.Request.Context(), c.Param("user_id"), req.YearMonth)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OK(c, score)
}

// Adjust 手动加减分
// POST /api/v1/scores/adjust
func (h *ScoreHandler) Adjust(c *gin.Context) {
	var req dto.AdjustScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	score, err := h.scoreSvc.AdjustScore(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OK(c, score)
}

// Recalculate 重算某月所有在职实习生
// POST /api/v1/scores/recalculate
func (h *ScoreHandler) Recalculate(c *gin.Context) {
	var req dto.YearMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.scoreSvc.RecalculateMonth(c.Request.Context(), req.YearMonth)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OK(c, result)
}

// Broadcast 向信息频道推送月度排名
// POST /api/v1/scores/broadcast
func (h *ScoreHandler) Broadcast(c *gin.Context) {
	var req dto.YearMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	if err := h.scoreSvc.BroadcastRanking(c.Request.Context(), req.YearMonth); err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleScoreError 统一处理积分模块业务错误
func (h *ScoreHandler) handleScoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrScoreNotFound):
		response.NotFound(c, 19001, service.ErrScoreNotFound.Error())
	case errors.Is(err, service.ErrNoScores):
		response.NotFound(c, 19002, service.ErrNoScores.Error())
	default:
		handleCommonError(c, err)
	}
}
