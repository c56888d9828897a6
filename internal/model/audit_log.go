package model

import (
	"time"

	"gorm.io/gorm"
)

// 审计动作
const (
	AuditApproveLeave      = "approve_leave"
	AuditRejectLeave       = "reject_leave"
	AuditApproveRetroClock = "approve_retro_clock"
	AuditRejectRetroClock  = "reject_retro_clock"
	AuditAdjustScore       = "adjust_score"
	AuditUpdateConfig      = "update_config"
	AuditIssueAccessToken  = "issue_access_token"
)

// AuditLog 审计日志表 — 对应 audit_logs（只追加）
type AuditLog struct {
	ID         string    `gorm:"type:uuid;primaryKey"                json:"id"`
	ActorID    string    `gorm:"type:uuid;not null;index"            json:"actor_id"`
	Action     string    `gorm:"type:varchar(64);not null;index"     json:"action"`
	TargetType string    `gorm:"type:varchar(64);not null"           json:"target_type"`
	TargetID   string    `gorm:"type:varchar(64);not null"           json:"target_id"`
	Changes    JSONMap   `gorm:"type:jsonb"                          json:"changes,omitempty"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// TableName 指定表名
func (AuditLog) TableName() string { return "audit_logs" }

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	newID(&a.ID)
	return nil
}
