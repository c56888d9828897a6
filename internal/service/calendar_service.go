package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"timeclock/internal/model"
	"timeclock/internal/repository"
	"timeclock/pkg/timeutil"
)

// ── 日历订阅 ──────────────────────────────────────────────
//
// 职责：将已批准的请假导出为 iCalendar (RFC 5545) 订阅源。
//
//   - 每条请假对应一个 VEVENT，UID 固定为 CalendarEventUID(id)，
//     客户端重复拉取时按 UID 覆盖而非新增
//   - 默认窗口为当月前后各一个月
// ─────────────────────────────────────────────────────────────

const calendarProductID = "-//timeclock//leave feed//ZH"

var leaveTypeLabels = map[string]string{
	model.LeaveTypeSick:      "病假",
	model.LeaveTypeMenstrual: "生理假",
	model.LeaveTypePersonal:  "事假",
	model.LeaveTypeOther:     "其他",
}

// CalendarService 日历订阅业务接口
type CalendarService interface {
	// LeaveFeed 生成 [from, to] 内已批准请假的 iCalendar 文本
	// from/to 为空时使用默认窗口
	LeaveFeed(ctx context.Context, from, to string) (string, error)
}

type calendarService struct {
	repo   *repository.Repository
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, loc: loc, now: time.Now, logger: logger}
}

func (s *calendarService) window(fromStr, toStr string) (time.Time, time.Time, error) {
	today := timeutil.CivilDate(s.now(), s.loc)
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	from := first.AddDate(0, -1, 0)
	to := first.AddDate(0, 2, -1)

	if fromStr != "" {
		d, err := timeutil.ParseDate(fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidDate
		}
		from = d
	}
	if toStr != "" {
		d, err := timeutil.ParseDate(toStr)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidDate
		}
		to = d
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}

	start, _ := timeutil.DayBounds(from, s.loc)
	_, end := timeutil.DayBounds(to, s.loc)
	return start, end, nil
}

func (s *calendarService) LeaveFeed(ctx context.Context, fromStr, toStr string) (string, error) {
	from, to, err := s.window(fromStr, toStr)
	if err != nil {
		return "", err
	}

	leaves, err := s.repo.Leave.ListApprovedOverlapping(ctx, from, to)
	if err != nil {
		s.logger.Error("查询已批准请假失败", zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("实习生请假")
	cal.SetXWRTimezone(s.loc.String())

	stamp := s.now().UTC()
	for i := range leaves {
		l := &leaves[i]
		uid := l.CalendarEventUID
		if uid == "" {
			uid = CalendarEventUID(l.ID)
		}

		event := cal.AddEvent(uid)
		event.SetDtStampTime(stamp)
		event.SetStartAt(l.StartDatetime.UTC())
		event.SetEndAt(l.EndDatetime.UTC())
		event.SetSummary(leaveSummary(l))
		event.SetDescription(l.Reason)
		event.SetStatus(ics.ObjectStatusConfirmed)
		if l.ReviewedAt != nil {
			event.SetModifiedAt(l.ReviewedAt.UTC())
		}
	}

	return cal.Serialize(), nil
}

func leaveSummary(l *model.LeaveRequest) string {
	label, ok := leaveTypeLabels[l.Type]
	if !ok {
		label = l.Type
	}
	name := l.UserID
	if l.User != nil {
		name = l.User.Name
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s", name, label))
}
