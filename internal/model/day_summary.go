package model

import (
	"time"

	"gorm.io/gorm"
)

// DayKind 区分“非排班日”与“排班日缺勤”
type DayKind string

const (
	DayKindNonWorkday     DayKind = "NON_WORKDAY"
	DayKindWorkdayPresent DayKind = "WORKDAY_PRESENT"
	DayKindWorkdayAbsent  DayKind = "WORKDAY_ABSENT"
)

// DaySummary 日汇总表 — 对应 day_summaries，(user_id, date) 唯一
// 由日汇总重算整行覆盖写入
type DaySummary struct {
	ID                  string    `gorm:"type:uuid;primaryKey"                                 json:"id"`
	UserID              string    `gorm:"type:uuid;not null;uniqueIndex:uk_day_summary_user_date,priority:1" json:"user_id"`
	Date                time.Time `gorm:"type:date;not null;uniqueIndex:uk_day_summary_user_date,priority:2" json:"date"`
	DayKind             DayKind   `gorm:"type:varchar(20);not null"                            json:"day_kind"`
	WorkOnsiteSeconds   int64     `gorm:"not null;default:0"                                   json:"work_onsite_seconds"`
	WorkRemoteSeconds   int64     `gorm:"not null;default:0"                                   json:"work_remote_seconds"`
	TotalWorkSeconds    int64     `gorm:"not null;default:0"                                   json:"total_work_seconds"`
	ScheduledSeconds    int64     `gorm:"not null;default:0"                                   json:"scheduled_seconds"`
	IsLate              bool      `gorm:"not null;default:false"                               json:"is_late"`
	LateMinutes         int       `gorm:"not null;default:0"                                   json:"late_minutes"`
	IsEarlyLeave        bool      `gorm:"not null;default:false"                               json:"is_early_leave"`
	EarlyLeaveMinutes   int       `gorm:"not null;default:0"                                   json:"early_leave_minutes"`
	IsAbsent            bool      `gorm:"not null;default:false"                               json:"is_absent"`
	LunchBreakSeconds   int64     `gorm:"not null;default:0"                                   json:"lunch_break_seconds"`
	LunchOverlapSeconds int64     `gorm:"not null;default:0"                                   json:"lunch_overlap_seconds"`
	BreakOffsiteSeconds int64     `gorm:"not null;default:0"                                   json:"break_offsite_seconds"`
	HasAdvanceNotice    bool      `gorm:"not null;default:false"                               json:"has_advance_notice"`
	StatusNotes         string    `gorm:"type:text"                                            json:"status_notes"`
	CreatedAt           time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                   json:"created_at"`
	UpdatedAt           time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                   json:"updated_at"`
}

// TableName 指定表名
func (DaySummary) TableName() string { return "day_summaries" }

func (s *DaySummary) BeforeCreate(*gorm.DB) error {
	newID(&s.ID)
	return nil
}
