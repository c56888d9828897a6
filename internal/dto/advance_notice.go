package dto

// ── 预先告知模块 DTO ──

// CreateAdvanceNoticeRequest 提交预先告知请求
type CreateAdvanceNoticeRequest struct {
	NoticeType      string `json:"notice_type"      binding:"required,oneof=LATE LEAVE"`
	ExpectedDate    string `json:"expected_date"    binding:"required,date"`
	ExpectedMinutes *int   `json:"expected_minutes" binding:"omitempty,min=1,max=1440"`
	Reason          string `json:"reason"           binding:"required,min=1,max=500"`
	Source          string `json:"source"           binding:"omitempty,oneof=WEB SLACK"`
}

// AdvanceNoticeListRequest 预先告知列表查询
type AdvanceNoticeListRequest struct {
	IsUsed *bool `form:"is_used"`
}

// AdvanceNoticeResponse 预先告知响应
type AdvanceNoticeResponse struct {
	ID              string `json:"id"`
	NoticeType      string `json:"notice_type"`
	ExpectedDate    string `json:"expected_date"`
	ExpectedMinutes *int   `json:"expected_minutes,omitempty"`
	Reason          string `json:"reason"`
	Source          string `json:"source"`
	IsUsed          bool   `json:"is_used"`
	CreatedAt       string `json:"created_at"`
}

// AdvanceNoticeStats 月度预先告知统计
type AdvanceNoticeStats struct {
	YearMonth  string `json:"year_month"`
	Total      int    `json:"total"`
	LateCount  int    `json:"late_count"`
	LeaveCount int    `json:"leave_count"`
	UsedCount  int    `json:"used_count"`
}
