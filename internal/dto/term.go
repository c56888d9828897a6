package dto

// ── 实习期模块 DTO ──

// DayScheduleDTO 单日排班
type DayScheduleDTO struct {
	Start string `json:"start" binding:"required,hhmm"`
	End   string `json:"end"   binding:"required,hhmm"`
}

// CreateTermRequest 创建实习期请求
// base_schedule 省略时按 work_start_time / work_end_time 生成周一至周五排班
type CreateTermRequest struct {
	UserID       string                    `json:"user_id"       binding:"required,uuid"`
	StartDate    string                    `json:"start_date"    binding:"required,date"`
	EndDate      string                    `json:"end_date"      binding:"required,date"`
	BaseSchedule map[string]DayScheduleDTO `json:"base_schedule" binding:"omitempty,dive"`
}

// UpdateTermRequest 更新实习期请求（仅 PENDING 可改）
type UpdateTermRequest struct {
	StartDate    *string                   `json:"start_date"    binding:"omitempty,date"`
	EndDate      *string                   `json:"end_date"      binding:"omitempty,date"`
	BaseSchedule map[string]DayScheduleDTO `json:"base_schedule" binding:"omitempty,dive"`
	Version      int                       `json:"version"       binding:"required,min=1"`
}

// TermResponse 实习期响应
type TermResponse struct {
	ID           string                    `json:"id"`
	UserID       string                    `json:"user_id"`
	StartDate    string                    `json:"start_date"`
	EndDate      string                    `json:"end_date"`
	Status       string                    `json:"status"`
	BaseSchedule map[string]DayScheduleDTO `json:"base_schedule"`
	Version      int                       `json:"version"`
}

// TermVersionRequest 确认 / 取消实习期请求（携带乐观锁版本号）
type TermVersionRequest struct {
	Version int `json:"version" binding:"required,min=1"`
}

// TermListQuery 实习期列表查询，实习生只能查自己
type TermListQuery struct {
	UserID string `form:"user_id" binding:"omitempty,uuid"`
}
