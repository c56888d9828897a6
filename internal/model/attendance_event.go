package model

import (
	"sync/atomic"
	"time"

	"gorm.io/gorm"
)

// EventType 打卡事件类型
type EventType string

const (
	EventWorkOnsiteStart   EventType = "WORK_ONSITE_START"
	EventWorkOnsiteEnd     EventType = "WORK_ONSITE_END"
	EventWorkRemoteStart   EventType = "WORK_REMOTE_START"
	EventWorkRemoteEnd     EventType = "WORK_REMOTE_END"
	EventBreakOffsiteStart EventType = "BREAK_OFFSITE_START"
	EventBreakOffsiteEnd   EventType = "BREAK_OFFSITE_END"
)

// Valid 是否为已知事件类型
func (t EventType) Valid() bool {
	switch t {
	case EventWorkOnsiteStart, EventWorkOnsiteEnd, EventWorkRemoteStart,
		EventWorkRemoteEnd, EventBreakOffsiteStart, EventBreakOffsiteEnd:
		return true
	}
	return false
}

// IsWorkStart 上班类事件
func (t EventType) IsWorkStart() bool {
	return t == EventWorkOnsiteStart || t == EventWorkRemoteStart
}

// IsWorkEnd 下班类事件
func (t EventType) IsWorkEnd() bool {
	return t == EventWorkOnsiteEnd || t == EventWorkRemoteEnd
}

// 事件来源
const (
	SourceWeb           = "WEB"
	SourceSlack         = "SLACK"
	SourceAdmin         = "ADMIN"
	SourceRetroApproved = "RETRO_APPROVED"
)

// AttendanceEvent 打卡事件表 — 对应 attendance_events
// 事件只追加，不修改不删除；同一时间戳按 seq 决定先后
type AttendanceEvent struct {
	ID               string    `gorm:"type:uuid;primaryKey"                  json:"id"`
	UserID           string    `gorm:"type:uuid;not null;index:idx_event_user_ts,priority:1" json:"user_id"`
	Type             EventType `gorm:"type:varchar(32);not null"             json:"type"`
	Timestamp        time.Time `gorm:"not null;index:idx_event_user_ts,priority:2" json:"timestamp"`
	Seq              int64     `gorm:"not null"                              json:"-"`
	Source           string    `gorm:"type:varchar(20);not null;default:'WEB'" json:"source"`
	RelatedRequestID *string   `gorm:"type:uuid"                             json:"related_request_id,omitempty"`
	Metadata         JSONMap   `gorm:"type:jsonb"                            json:"metadata,omitempty"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"    json:"created_at"`
}

// TableName 指定表名
func (AttendanceEvent) TableName() string { return "attendance_events" }

// lastSeq 进程内单调递增的插入序号，以纳秒时间为基准
var lastSeq atomic.Int64

func nextSeq() int64 {
	for {
		prev := lastSeq.Load()
		next := time.Now().UnixNano()
		if next <= prev {
			next = prev + 1
		}
		if lastSeq.CompareAndSwap(prev, next) {
			return next
		}
	}
}

func (e *AttendanceEvent) BeforeCreate(*gorm.DB) error {
	newID(&e.ID)
	e.Timestamp = e.Timestamp.UTC()
	if e.Seq == 0 {
		e.Seq = nextSeq()
	}
	if e.Source == "" {
		e.Source = SourceWeb
	}
	return nil
}
