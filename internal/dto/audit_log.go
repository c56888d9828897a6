package dto

// AuditLogListRequest 审计日志查询
type AuditLogListRequest struct {
	PaginationRequest
	ActorID    string `form:"actor_id"    binding:"omitempty,uuid"`
	Action     string `form:"action"      binding:"omitempty,max=64"`
	TargetType string `form:"target_type" binding:"omitempty,max=64"`
	From       string `form:"from"        binding:"omitempty,date"`
	To         string `form:"to"          binding:"omitempty,date"`
}

// AuditLogResponse 审计日志
type AuditLogResponse struct {
	ID         string                 `json:"id"`
	ActorID    string                 `json:"actor_id"`
	Action     string                 `json:"action"`
	TargetType string                 `json:"target_type"`
	TargetID   string                 `json:"target_id"`
	Changes    map[string]interface{} `json:"changes,omitempty"`
	CreatedAt  string                 `json:"created_at"`
}
