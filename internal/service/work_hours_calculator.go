package service

import (
	"fmt"
	"strings"
	"time"

	"timeclock/internal/model"
	"timeclock/pkg/timeutil"
)

// DailyBreakdown 单日工时计算结果
type DailyBreakdown struct {
	DayKind             model.DayKind
	WorkOnsiteSeconds   int64
	WorkRemoteSeconds   int64
	TotalWorkSeconds    int64
	ScheduledSeconds    int64
	IsLate              bool
	LateMinutes         int
	IsEarlyLeave        bool
	EarlyLeaveMinutes   int
	IsAbsent            bool
	LunchBreakSeconds   int64
	LunchOverlapSeconds int64
	BreakOffsiteSeconds int64
	StatusNotes         string
}

type workMode int

const (
	modeOnsite workMode = iota
	modeRemote
)

type interval struct {
	start time.Time
	end   time.Time
}

type workSegment struct {
	interval
	mode workMode
}

// overlapSeconds 两个区间的重叠秒数（截断到整秒）
func overlapSeconds(a, b interval) int64 {
	start := a.start
	if b.start.After(start) {
		start = b.start
	}
	end := a.end
	if b.end.Before(end) {
		end = b.end
	}
	if !end.After(start) {
		return 0
	}
	return int64(end.Sub(start) / time.Second)
}

func elapsedSeconds(from, to time.Time) int64 {
	return int64(to.Sub(from) / time.Second)
}

// extractSegments 单次正向扫描提取工作段与外出休息段
//
// 工作段：Start 打开，同类 End 关闭；再次 Start 覆盖尚未关闭的段；
// 到事件末尾仍未关闭的工作段截止到当日 23:59:59.999。
// 休息段：BreakStart 打开，BreakEnd 关闭；未关闭的休息段直接丢弃。
func extractSegments(events []model.AttendanceEvent, dayEnd time.Time) ([]workSegment, []interval) {
	var (
		works    []workSegment
		breaks   []interval
		openWork *workSegment
		openBrk  *time.Time
	)

	for _, e := range events {
		ts := e.Timestamp
		switch e.Type {
		case model.EventWorkOnsiteStart:
			openWork = &workSegment{interval: interval{start: ts}, mode: modeOnsite}
		case model.EventWorkRemoteStart:
			openWork = &workSegment{interval: interval{start: ts}, mode: modeRemote}
		case model.EventWorkOnsiteEnd, model.EventWorkRemoteEnd:
			if openWork == nil {
				continue
			}
			endMode := modeOnsite
			if e.Type == model.EventWorkRemoteEnd {
				endMode = modeRemote
			}
			if endMode != openWork.mode {
				continue
			}
			openWork.end = ts
			works = append(works, *openWork)
			openWork = nil
		case model.EventBreakOffsiteStart:
			t := ts
			openBrk = &t
		case model.EventBreakOffsiteEnd:
			if openBrk != nil {
				breaks = append(breaks, interval{start: *openBrk, end: ts})
				openBrk = nil
			}
		}
	}

	if openWork != nil {
		openWork.end = dayEnd
		works = append(works, *openWork)
	}

	return works, breaks
}

// CalculateWorkHours 由当日有序事件、日期、每周排班与规则快照计算单日工时
// 纯函数：相同输入总是得到相同结果
func CalculateWorkHours(events []model.AttendanceEvent, date time.Time, schedule model.WeeklySchedule, rules AttendanceRules) DailyBreakdown {
	loc := rules.Location
	if loc == nil {
		loc = time.UTC
	}

	day, ok := schedule.For(date.Weekday())
	if !ok {
		return nonWorkday("非排班工作日")
	}
	startClock, endClock, err := day.Bounds()
	if err != nil {
		return nonWorkday("排班配置无效")
	}

	scheduledStart := startClock.On(date, loc)
	scheduledEnd := endClock.On(date, loc)
	lunch := interval{start: rules.LunchStart.On(date, loc), end: rules.LunchEnd.On(date, loc)}
	_, dayEnd := timeutil.DayBounds(date, loc)
	dayEnd = dayEnd.Truncate(time.Millisecond)

	works, breaks := extractSegments(events, dayEnd)

	b := DailyBreakdown{
		DayKind:           model.DayKindWorkdayPresent,
		ScheduledSeconds:  elapsedSeconds(scheduledStart, scheduledEnd),
		LunchBreakSeconds: DisplayLunchBreakSeconds,
	}

	for _, seg := range works {
		net := elapsedSeconds(seg.start, seg.end)

		lunchOverlap := overlapSeconds(seg.interval, lunch)
		net -= lunchOverlap
		b.LunchOverlapSeconds += lunchOverlap

		for _, brk := range breaks {
			o := overlapSeconds(seg.interval, brk)
			net -= o
			b.BreakOffsiteSeconds += o
		}

		if net < 0 {
			net = 0
		}
		if seg.mode == modeOnsite {
			b.WorkOnsiteSeconds += net
		} else {
			b.WorkRemoteSeconds += net
		}
	}
	b.TotalWorkSeconds = b.WorkOnsiteSeconds + b.WorkRemoteSeconds

	// 迟到：第一条上班事件晚于 排班开始 + 宽限；分钟数从排班开始算起
	graceBoundary := scheduledStart.Add(time.Duration(rules.LateGraceMinutes) * time.Minute)
	for _, e := range events {
		if !e.Type.IsWorkStart() {
			continue
		}
		if e.Timestamp.After(graceBoundary) {
			b.IsLate = true
			b.LateMinutes = int(elapsedSeconds(scheduledStart, e.Timestamp) / 60)
		}
		break
	}

	// 早退：最后一条下班事件早于排班结束，无宽限
	var lastEnd *time.Time
	for i := range events {
		if events[i].Type.IsWorkEnd() && (lastEnd == nil || !events[i].Timestamp.Before(*lastEnd)) {
			lastEnd = &events[i].Timestamp
		}
	}
	if lastEnd != nil && lastEnd.Before(scheduledEnd) {
		b.IsEarlyLeave = true
		b.EarlyLeaveMinutes = int(elapsedSeconds(*lastEnd, scheduledEnd) / 60)
	}

	if len(works) == 0 {
		b.IsAbsent = true
		b.DayKind = model.DayKindWorkdayAbsent
	}

	b.StatusNotes = statusNotes(b)
	return b
}

func nonWorkday(note string) DailyBreakdown {
	return DailyBreakdown{
		DayKind:     model.DayKindNonWorkday,
		IsAbsent:    true,
		StatusNotes: note,
	}
}

func statusNotes(b DailyBreakdown) string {
	if b.IsAbsent {
		return "缺勤：当日无上班打卡记录"
	}
	var notes []string
	if b.IsLate {
		notes = append(notes, fmt.Sprintf("迟到 %d 分钟", b.LateMinutes))
	}
	if b.IsEarlyLeave {
		notes = append(notes, fmt.Sprintf("早退 %d 分钟", b.EarlyLeaveMinutes))
	}
	notes = append(notes, fmt.Sprintf("工时 %.2fh / 应出勤 %.2fh",
		float64(b.TotalWorkSeconds)/3600, float64(b.ScheduledSeconds)/3600))
	return strings.Join(notes, "; ")
}
