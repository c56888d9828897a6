package dto

// ── 积分模块 DTO ──

// AdjustScoreRequest 手动调整积分请求
type AdjustScoreRequest struct {
	UserID    string  `json:"user_id"    binding:"required,uuid"`
	YearMonth string  `json:"year_month" binding:"required,yearmonth"`
	Points    float64 `json:"points"     binding:"required,ne=0,min=-100,max=100"`
	Reason    string  `json:"reason"     binding:"required,min=1,max=500"`
}

// ScoreDetailResponse 积分明细
type ScoreDetailResponse struct {
	ReasonType       string `json:"reason_type"`
	RelatedDate      string `json:"related_date,omitempty"`
	PointsDelta      string `json:"points_delta"`
	HasAdvanceNotice bool   `json:"has_advance_notice"`
	Notes            string `json:"notes"`
	IsManual         bool   `json:"is_manual"`
}

// ScoreResponse 月度积分
type ScoreResponse struct {
	UserID         string                `json:"user_id"`
	UserName       string                `json:"user_name,omitempty"`
	YearMonth      string                `json:"year_month"`
	BaseScore      string                `json:"base_score"`
	TotalDeduction string                `json:"total_deduction"`
	BonusPoints    string                `json:"bonus_points"`
	FinalScore     string                `json:"final_score"`
	Status         string                `json:"status"`
	Details        []ScoreDetailResponse `json:"details,omitempty"`
}

// RecalculateResponse 批量重算结果
type RecalculateResponse struct {
	YearMonth string   `json:"year_month"`
	Succeeded int      `json:"succeeded"`
	Failed    []string `json:"failed,omitempty"`
}

// YearMonthRequest 按月操作请求（重算 / 广播）
type YearMonthRequest struct {
	YearMonth string `json:"year_month" binding:"required,yearmonth"`
}
