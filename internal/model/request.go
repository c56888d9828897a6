package model

import (
	"time"

	"gorm.io/gorm"
)

// 审批状态
const (
	RequestStatusPending  = "PENDING"
	RequestStatusApproved = "APPROVED"
	RequestStatusRejected = "REJECTED"
)

// 请假类型
const (
	LeaveTypeSick      = "SICK"
	LeaveTypeMenstrual = "MENSTRUAL"
	LeaveTypePersonal  = "PERSONAL"
	LeaveTypeOther     = "OTHER"
)

// Review 审批信息（请假与补打卡共用）
type Review struct {
	Status      string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ApproverID  *string    `gorm:"type:uuid"                                         json:"approver_id,omitempty"`
	ReviewNotes string     `gorm:"type:text"                                         json:"review_notes,omitempty"`
	ReviewedAt  *time.Time `                                                         json:"reviewed_at,omitempty"`
}

// LeaveRequest 请假申请表 — 对应 leave_requests
type LeaveRequest struct {
	ID                    string     `gorm:"type:uuid;primaryKey"        json:"id"`
	UserID                string     `gorm:"type:uuid;not null;index"    json:"user_id"`
	StartDatetime         time.Time  `gorm:"not null"                    json:"start_datetime"`
	EndDatetime           time.Time  `gorm:"not null"                    json:"end_datetime"`
	Type                  string     `gorm:"type:varchar(20);not null"   json:"type"`
	Reason                string     `gorm:"type:text;not null"          json:"reason"`
	HasAdvanceNotice      bool       `gorm:"not null;default:false"      json:"has_advance_notice"`
	AdvanceNoticeDatetime *time.Time `                                   json:"advance_notice_datetime,omitempty"`
	AttachmentKeys        StringList `gorm:"type:jsonb"                  json:"attachment_keys"`
	CalendarEventUID      string     `gorm:"type:varchar(128)"           json:"calendar_event_uid,omitempty"`
	Review
	VersionedModel

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (LeaveRequest) TableName() string { return "leave_requests" }

func (r *LeaveRequest) BeforeCreate(*gorm.DB) error {
	newID(&r.ID)
	return nil
}

// RetroClockRequest 补打卡申请表 — 对应 retro_clock_requests
// Date 为目标日期，Time 为 HH:mm（组织时区）
type RetroClockRequest struct {
	ID              string     `gorm:"type:uuid;primaryKey"       json:"id"`
	UserID          string     `gorm:"type:uuid;not null;index"   json:"user_id"`
	Date            time.Time  `gorm:"type:date;not null;index"   json:"date"`
	Time            string     `gorm:"type:varchar(5);not null"   json:"time"`
	Type            EventType  `gorm:"type:varchar(32);not null"  json:"type"`
	Reason          string     `gorm:"type:text;not null"         json:"reason"`
	ImprovementPlan string     `gorm:"type:text;not null"         json:"improvement_plan"`
	AttachmentKeys  StringList `gorm:"type:jsonb"                 json:"attachment_keys"`
	EventID         *string    `gorm:"type:uuid"                  json:"event_id,omitempty"`
	Review
	VersionedModel

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (RetroClockRequest) TableName() string { return "retro_clock_requests" }

func (r *RetroClockRequest) BeforeCreate(*gorm.DB) error {
	newID(&r.ID)
	return nil
}
