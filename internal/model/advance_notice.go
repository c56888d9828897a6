package model

import (
	"time"

	"gorm.io/gorm"
)

// 预先告知类型
const (
	NoticeTypeLate  = "LATE"
	NoticeTypeLeave = "LEAVE"
)

// AdvanceNotice 预先告知表 — 对应 advance_notices
// 每条告知至多被日汇总消费一次（is_used: false → true）
type AdvanceNotice struct {
	ID              string    `gorm:"type:uuid;primaryKey"                json:"id"`
	UserID          string    `gorm:"type:uuid;not null;index:idx_notice_user_date,priority:1" json:"user_id"`
	NoticeType      string    `gorm:"type:varchar(10);not null"           json:"notice_type"`
	ExpectedDate    time.Time `gorm:"type:date;not null;index:idx_notice_user_date,priority:2" json:"expected_date"`
	ExpectedMinutes *int      `                                           json:"expected_minutes,omitempty"`
	Reason          string    `gorm:"type:text;not null"                  json:"reason"`
	Source          string    `gorm:"type:varchar(20);not null;default:'WEB'" json:"source"`
	IsUsed          bool      `gorm:"not null;default:false"              json:"is_used"`
	RelatedEventID  *string   `gorm:"type:uuid"                           json:"related_event_id,omitempty"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"  json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"  json:"updated_at"`
}

// TableName 指定表名
func (AdvanceNotice) TableName() string { return "advance_notices" }

func (n *AdvanceNotice) BeforeCreate(*gorm.DB) error {
	newID(&n.ID)
	return nil
}
