package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"timeclock/pkg/timeutil"
)

// 实习期状态
const (
	TermStatusPending   = "PENDING"
	TermStatusConfirmed = "CONFIRMED"
	TermStatusCancelled = "CANCELLED"
)

// ── 每周排班 ──

// ClockTime 一天中的时刻（分钟精度）
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime 解析 HH:mm
func ParseClockTime(s string) (ClockTime, error) {
	h, m, err := timeutil.ParseClock(s)
	if err != nil {
		return ClockTime{}, err
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

// Minutes 距零点的分钟数
func (c ClockTime) Minutes() int { return c.Hour*60 + c.Minute }

// On 返回该时刻在 date（组织时区）上的绝对时间
func (c ClockTime) On(date time.Time, loc *time.Location) time.Time {
	return timeutil.At(date, c.Hour, c.Minute, loc)
}

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// DaySchedule 某个工作日的排班
type DaySchedule struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Bounds 解析上下班时刻；下班必须晚于上班
func (d DaySchedule) Bounds() (start, end ClockTime, err error) {
	if start, err = ParseClockTime(d.Start); err != nil {
		return
	}
	if end, err = ParseClockTime(d.End); err != nil {
		return
	}
	if end.Minutes() <= start.Minutes() {
		err = fmt.Errorf("下班时间 %s 必须晚于上班时间 %s", d.End, d.Start)
	}
	return
}

// weekdayKeys 排班 JSON 的键（小写英文星期名）
var weekdayKeys = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// WeeklySchedule 每周排班，键为小写星期名：{"monday":{"start":"08:30","end":"18:00"}}
// 未出现的星期即非工作日
type WeeklySchedule map[string]DaySchedule

// For 返回某个星期几的排班
func (w WeeklySchedule) For(day time.Weekday) (DaySchedule, bool) {
	d, ok := w[strings.ToLower(day.String())]
	return d, ok
}

// Validate 校验键名与时刻格式
func (w WeeklySchedule) Validate() error {
	for key, day := range w {
		if _, ok := weekdayKeys[key]; !ok {
			return fmt.Errorf("无效的星期键 %q", key)
		}
		if _, _, err := day.Bounds(); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// Scan 从 JSON 文本解析
func (w *WeeklySchedule) Scan(src interface{}) error {
	if src == nil {
		*w = nil
		return nil
	}
	b, err := jsonBytes(src, "WeeklySchedule")
	if err != nil {
		return err
	}
	out := WeeklySchedule{}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &out); err != nil {
			return fmt.Errorf("WeeklySchedule.Scan: %w", err)
		}
	}
	*w = out
	return nil
}

// Value 序列化为 JSON 文本
func (w WeeklySchedule) Value() (driver.Value, error) {
	if w == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]DaySchedule(w))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// InternshipTerm 实习期表 — 对应 internship_terms
// 状态为 CONFIRMED 且 [start_date, end_date] 覆盖某日时，其 base_schedule 即该日排班
type InternshipTerm struct {
	ID           string         `gorm:"type:uuid;primaryKey"                         json:"id"`
	UserID       string         `gorm:"type:uuid;not null;index"                     json:"user_id"`
	StartDate    time.Time      `gorm:"type:date;not null"                           json:"start_date"`
	EndDate      time.Time      `gorm:"type:date;not null"                           json:"end_date"`
	Status       string         `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	BaseSchedule WeeklySchedule `gorm:"type:jsonb;not null"                          json:"base_schedule"`
	VersionedModel
}

// TableName 指定表名
func (InternshipTerm) TableName() string { return "internship_terms" }

func (t *InternshipTerm) BeforeCreate(*gorm.DB) error {
	newID(&t.ID)
	return nil
}

// Covers 日期是否落在实习期内（含首尾）
func (t *InternshipTerm) Covers(date time.Time) bool {
	return !date.Before(t.StartDate) && !date.After(t.EndDate)
}

// Overlaps 两个实习期的日期区间是否重叠
func (t *InternshipTerm) Overlaps(other *InternshipTerm) bool {
	return !t.EndDate.Before(other.StartDate) && !other.EndDate.Before(t.StartDate)
}
