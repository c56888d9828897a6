package dto

// ── 考勤模块 DTO ──

// ClockInRequest 上班打卡请求
type ClockInRequest struct {
	Mode   string `json:"mode"   binding:"required,oneof=onsite remote"`
	Source string `json:"source" binding:"omitempty,oneof=WEB SLACK"`
}

// ClockActionRequest 下班/休息打卡请求
type ClockActionRequest struct {
	Source string `json:"source" binding:"omitempty,oneof=WEB SLACK"`
}

// DayQuery 按日查询
type DayQuery struct {
	Date string `form:"date" binding:"required,date"`
}

// MonthQuery 按月查询
type MonthQuery struct {
	YearMonth string `form:"year_month" binding:"required,yearmonth"`
}

// EventResponse 打卡事件
type EventResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

// DaySummaryResponse 日汇总
type DaySummaryResponse struct {
	Date                string  `json:"date"`
	DayKind             string  `json:"day_kind"`
	WorkOnsiteSeconds   int64   `json:"work_onsite_seconds"`
	WorkRemoteSeconds   int64   `json:"work_remote_seconds"`
	TotalWorkSeconds    int64   `json:"total_work_seconds"`
	TotalWorkHours      float64 `json:"total_work_hours"`
	ScheduledSeconds    int64   `json:"scheduled_seconds"`
	IsLate              bool    `json:"is_late"`
	LateMinutes         int     `json:"late_minutes"`
	IsEarlyLeave        bool    `json:"is_early_leave"`
	EarlyLeaveMinutes   int     `json:"early_leave_minutes"`
	IsAbsent            bool    `json:"is_absent"`
	LunchBreakSeconds   int64   `json:"lunch_break_seconds"`
	LunchOverlapSeconds int64   `json:"lunch_overlap_seconds"`
	BreakOffsiteSeconds int64   `json:"break_offsite_seconds"`
	HasAdvanceNotice    bool    `json:"has_advance_notice"`
	StatusNotes         string  `json:"status_notes"`
}

// TodayStatusResponse 今日打卡状态
type TodayStatusResponse struct {
	Date     string              `json:"date"`
	Status   string              `json:"status"`
	Schedule *DayScheduleDTO     `json:"schedule,omitempty"`
	Events   []EventResponse     `json:"events"`
	Summary  *DaySummaryResponse `json:"summary,omitempty"`
}

// ClockResponse 打卡结果
type ClockResponse struct {
	Event   EventResponse       `json:"event"`
	Summary *DaySummaryResponse `json:"summary,omitempty"`
}

// MonthStats 月度出勤统计
type MonthStats struct {
	TotalDays        int     `json:"total_days"`
	TotalWorkSeconds int64   `json:"total_work_seconds"`
	OnsiteSeconds    int64   `json:"onsite_seconds"`
	RemoteSeconds    int64   `json:"remote_seconds"`
	LateDays         int     `json:"late_days"`
	EarlyLeaveDays   int     `json:"early_leave_days"`
	AbsentDays       int     `json:"absent_days"`
	AverageWorkHours float64 `json:"average_work_hours"`
}

// MonthSummaryResponse 月度出勤汇总
type MonthSummaryResponse struct {
	YearMonth string               `json:"year_month"`
	Days      []DaySummaryResponse `json:"days"`
	Stats     MonthStats           `json:"stats"`
}

// RecomputeDayRequest 管理员触发单日重算
type RecomputeDayRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Date   string `json:"date"    binding:"required,date"`
}
