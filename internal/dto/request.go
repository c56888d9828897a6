package dto

// ── 审批类请求（请假 / 补打卡）DTO ──

// RequestListQuery 审批列表查询
type RequestListQuery struct {
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	Status string `form:"status"  binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
	From   string `form:"from"    binding:"omitempty,date"`
	To     string `form:"to"      binding:"omitempty,date"`
}

// ReviewRequest 审批请求（通过 / 驳回）
type ReviewRequest struct {
	Notes   string `json:"notes"   binding:"omitempty,max=500"`
	Version int    `json:"version" binding:"required,min=1"`
}

// ReviewInfo 审批信息
type ReviewInfo struct {
	Status      string `json:"status"`
	ApproverID  string `json:"approver_id,omitempty"`
	ReviewNotes string `json:"review_notes,omitempty"`
	ReviewedAt  string `json:"reviewed_at,omitempty"`
}

// CreateLeaveRequest 提交请假请求
type CreateLeaveRequest struct {
	StartDatetime    string   `json:"start_datetime"     binding:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndDatetime      string   `json:"end_datetime"       binding:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Type             string   `json:"type"               binding:"required,oneof=SICK MENSTRUAL PERSONAL OTHER"`
	Reason           string   `json:"reason"             binding:"required,min=1,max=1000"`
	HasAdvanceNotice bool     `json:"has_advance_notice"`
	AttachmentKeys   []string `json:"attachment_keys"    binding:"omitempty,max=10,dive,max=512"`
}

// LeaveResponse 请假申请响应
type LeaveResponse struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	UserName         string     `json:"user_name,omitempty"`
	StartDatetime    string     `json:"start_datetime"`
	EndDatetime      string     `json:"end_datetime"`
	Type             string     `json:"type"`
	Reason           string     `json:"reason"`
	HasAdvanceNotice bool       `json:"has_advance_notice"`
	AttachmentKeys   []string   `json:"attachment_keys"`
	Review           ReviewInfo `json:"review"`
	Version          int        `json:"version"`
	CreatedAt        string     `json:"created_at"`
}

// LeaveStats 月度请假统计
type LeaveStats struct {
	YearMonth string         `json:"year_month"`
	Total     int            `json:"total"`
	Approved  int            `json:"approved"`
	Pending   int            `json:"pending"`
	Rejected  int            `json:"rejected"`
	ByType    map[string]int `json:"by_type"`
}

// CreateRetroClockRequest 提交补打卡请求
type CreateRetroClockRequest struct {
	Date            string   `json:"date"             binding:"required,date"`
	Time            string   `json:"time"             binding:"required,hhmm"`
	Type            string   `json:"type"             binding:"required,oneof=WORK_ONSITE_START WORK_ONSITE_END WORK_REMOTE_START WORK_REMOTE_END BREAK_START BREAK_END BREAK_OFFSITE_START BREAK_OFFSITE_END"`
	Reason          string   `json:"reason"           binding:"required,min=1,max=1000"`
	ImprovementPlan string   `json:"improvement_plan" binding:"required,min=1,max=1000"`
	AttachmentKeys  []string `json:"attachment_keys"  binding:"omitempty,max=10,dive,max=512"`
}

// RetroClockResponse 补打卡申请响应
type RetroClockResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	UserName        string     `json:"user_name,omitempty"`
	Date            string     `json:"date"`
	Time            string     `json:"time"`
	Type            string     `json:"type"`
	Reason          string     `json:"reason"`
	ImprovementPlan string     `json:"improvement_plan"`
	AttachmentKeys  []string   `json:"attachment_keys"`
	EventID         string     `json:"event_id,omitempty"`
	Review          ReviewInfo `json:"review"`
	Version         int        `json:"version"`
	CreatedAt       string     `json:"created_at"`
}

// RetroClockStats 月度补打卡统计
type RetroClockStats struct {
	YearMonth string `json:"year_month"`
	Total     int    `json:"total"`
	Approved  int    `json:"approved"`
	Pending   int    `json:"pending"`
	Rejected  int    `json:"rejected"`
}

// AttachmentResponse 附件上传结果
type AttachmentResponse struct {
	Key string `json:"key"`
	URL string `json:"url,omitempty"`
}
