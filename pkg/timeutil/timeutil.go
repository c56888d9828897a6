// Package timeutil 处理考勤中的“民用日期”与组织时区换算
//
// 约定：日期（date）统一以 UTC 零点的 time.Time 表示并存入 date 列；
// 打卡时间戳（timestamp）为绝对时间，按组织时区解释为某一天。
package timeutil

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

const (
	DateLayout      = "2006-01-02"
	YearMonthLayout = "2006-01"
	ClockLayout     = "15:04"
)

// ParseDate 解析 YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("日期格式应为 YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// FormatDate 格式化为 YYYY-MM-DD
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}

// ParseYearMonth 解析 YYYY-MM，返回该月第一天与最后一天（均为日期）
func ParseYearMonth(s string) (first, last time.Time, err error) {
	t, err := time.ParseInLocation(YearMonthLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("月份格式应为 YYYY-MM: %w", err)
	}
	n := now.New(t)
	first = n.BeginningOfMonth()
	last = Date(n.EndOfMonth())
	return first, last, nil
}

// YearMonth 返回日期所在月份 YYYY-MM
func YearMonth(date time.Time) string {
	return date.Format(YearMonthLayout)
}

// Date 截取到日期（保留年月日，转为 UTC 零点）
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CivilDate 返回时间戳在组织时区下对应的日期
func CivilDate(ts time.Time, loc *time.Location) time.Time {
	return Date(ts.In(loc))
}

// DayBounds 返回日期在组织时区下的 [开始, 结束] 时刻
// 结束时刻为当日 23:59:59.999999999
func DayBounds(date time.Time, loc *time.Location) (start, end time.Time) {
	local := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, loc)
	n := now.New(local)
	return n.BeginningOfDay(), n.EndOfDay()
}

// At 返回日期在组织时区下 hour:minute 对应的时刻
func At(date time.Time, hour, minute int, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
}

// ParseClock 解析 HH:mm，返回时与分
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil || len(s) != len(ClockLayout) {
		return 0, 0, fmt.Errorf("时间格式应为 HH:mm，实际 %q", s)
	}
	return t.Hour(), t.Minute(), nil
}

// EachDay 按日期升序遍历 [from, to]
func EachDay(from, to time.Time, fn func(date time.Time) error) error {
	for d := Date(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}
