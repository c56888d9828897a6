package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"timeclock/internal/dto"
	"timeclock/internal/model"
	"timeclock/internal/repository"
	"timeclock/pkg/keylock"
	"timeclock/pkg/notify"
	"timeclock/pkg/timeutil"
)

// ── 考勤模块业务错误 ──

var (
	ErrInvalidDate       = errors.New("日期格式无效，应为 YYYY-MM-DD")
	ErrInvalidYearMonth  = errors.New("月份格式无效，应为 YYYY-MM")
	ErrSummaryNotFound   = errors.New("当日没有打卡记录")
	ErrAlreadyClockedIn  = errors.New("今日已打过该类型的上班卡")
	ErrNotClockedIn      = errors.New("今日尚未上班打卡")
	ErrAlreadyClockedOut = errors.New("已完成下班打卡")
	ErrAlreadyOnBreak    = errors.New("已在外出休息中")
	ErrNoActiveBreak     = errors.New("当前没有进行中的外出休息")
)

// 今日打卡状态
const (
	StatusNotStarted    = "not_started"
	StatusWorkingOnsite = "working_onsite"
	StatusWorkingRemote = "working_remote"
	StatusOnBreak       = "on_break"
	StatusFinished      = "finished"
)

// AttendanceService 打卡与日汇总业务接口
type AttendanceService interface {
	// RecomputeDay 由当日全部事件重算日汇总并写入；当日无事件时返回 nil, nil
	RecomputeDay(ctx context.Context, userID string, date time.Time) (*model.DaySummary, error)

	ClockIn(ctx context.Context, userID string, req *dto.ClockInRequest) (*dto.ClockResponse, error)
	ClockOut(ctx context.Context, userID string, req *dto.ClockActionRequest) (*dto.ClockResponse, error)
	BreakStart(ctx context.Context, userID string, req *dto.ClockActionRequest) (*dto.ClockResponse, error)
	BreakEnd(ctx context.Context, userID string, req *dto.ClockActionRequest) (*dto.ClockResponse, error)

	GetTodayStatus(ctx context.Context, userID string) (*dto.TodayStatusResponse, error)
	GetDaySummary(ctx context.Context, userID, date string) (*dto.DaySummaryResponse, error)
	GetMonthSummary(ctx context.Context, userID, yearMonth string) (*dto.MonthSummaryResponse, error)
}

type attendanceService struct {
	repo     *repository.Repository
	schedule ScheduleService
	config   SystemConfigService
	notifier notify.Notifier
	loc      *time.Location
	locks    *keylock.KeyedMutex
	now      func() time.Time
	logger   *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(
	repo *repository.Repository,
	schedule ScheduleService,
	config SystemConfigService,
	notifier notify.Notifier,
	loc *time.Location,
	logger *zap.Logger,
) AttendanceService {
	return &attendanceService{
		repo:     repo,
		schedule: schedule,
		config:   config,
		notifier: notifier,
		loc:      loc,
		locks:    keylock.New(),
		now:      time.Now,
		logger:   logger,
	}
}

// ────────────────────── RecomputeDay ──────────────────────

func (s *attendanceService) RecomputeDay(ctx context.Context, userID string, date time.Time) (*model.DaySummary, error) {
	date = timeutil.Date(date)
	dateStr := timeutil.FormatDate(date)

	// 同一 (user, date) 的重算串行执行
	unlock := s.locks.Lock(userID + "|" + dateStr)
	defer unlock()

	start, end := timeutil.DayBounds(date, s.loc)
	events, err := s.repo.Event.ListByUserBetween(ctx, userID, start, end)
	if err != nil {
		s.logger.Error("查询打卡事件失败", zap.String("user_id", userID), zap.String("date", dateStr), zap.Error(err))
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	term, err := s.schedule.CurrentSchedule(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	var weekly model.WeeklySchedule
	if term == nil {
		s.logger.Warn("未找到覆盖该日的已确认实习期，按非排班日处理",
			zap.String("user_id", userID), zap.String("date", dateStr))
	} else {
		weekly = term.BaseSchedule
	}

	rules, err := s.config.LoadRules(ctx)
	if err != nil {
		s.logger.Error("加载考勤规则失败", zap.Error(err))
		return nil, err
	}

	b := CalculateWorkHours(events, date, weekly, rules)

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 已标记的预先告知不会因重算被清除
		hasNotice := false
		prev, err := tx.DaySummary.GetByUserDate(ctx, userID, date)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if prev != nil && prev.HasAdvanceNotice {
			hasNotice = true
		}

		notice, err := tx.AdvanceNotice.FirstUnused(ctx, userID, date)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if notice != nil {
			hasNotice = true
		}

		summary := toDaySummaryModel(userID, date, b, hasNotice)
		if err := tx.DaySummary.Upsert(ctx, summary); err != nil {
			return err
		}
		if notice != nil {
			if _, err := tx.AdvanceNotice.MarkUsed(ctx, notice.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("写入日汇总失败", zap.String("user_id", userID), zap.String("date", dateStr), zap.Error(err))
		return nil, err
	}

	summary, err := s.repo.DaySummary.GetByUserDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("日汇总已重算",
		zap.String("user_id", userID),
		zap.String("date", dateStr),
		zap.String("day_kind", string(summary.DayKind)),
		zap.Int64("total_work_seconds", summary.TotalWorkSeconds),
	)
	return summary, nil
}

func toDaySummaryModel(userID string, date time.Time, b DailyBreakdown, hasNotice bool) *model.DaySummary {
	return &model.DaySummary{
		UserID:              userID,
		Date:                date,
		DayKind:             b.DayKind,
		WorkOnsiteSeconds:   b.WorkOnsiteSeconds,
		WorkRemoteSeconds:   b.WorkRemoteSeconds,
		TotalWorkSeconds:    b.TotalWorkSeconds,
		ScheduledSeconds:    b.ScheduledSeconds,
		IsLate:              b.IsLate,
		LateMinutes:         b.LateMinutes,
		IsEarlyLeave:        b.IsEarlyLeave,
		EarlyLeaveMinutes:   b.EarlyLeaveMinutes,
		IsAbsent:            b.IsAbsent,
		LunchBreakSeconds:   b.LunchBreakSeconds,
		LunchOverlapSeconds: b.LunchOverlapSeconds,
		BreakOffsiteSeconds: b.BreakOffsiteSeconds,
		HasAdvanceNotice:    hasNotice,
		StatusNotes:         b.StatusNotes,
	}
}

// ────────────────────── 打卡 ──────────────────────

func (s *attendanceService) todayEvents(ctx context.Context, userID string) (time.Time, []model.AttendanceEvent, error) {
	today := timeutil.CivilDate(s.now(), s.loc)
	start, end := timeutil.DayBounds(today, s.loc)
	events, err := s.repo.Event.ListByUserBetween(ctx, userID, start, end)
	if err != nil {
		s.logger.Error("查询今日打卡事件失败", zap.String("user_id", userID), zap.Error(err))
		return today, nil, err
	}
	return today, events, nil
}

// record 写入事件；recompute 为 true 时随后重算当日汇总
func (s *attendanceService) record(ctx context.Context, userID string, eventType model.EventType, source string, today time.Time, recompute bool) (*dto.ClockResponse, error) {
	if source == "" {
		source = model.SourceWeb
	}
	event := &model.AttendanceEvent{
		UserID:    userID,
		Type:      eventType,
		Timestamp: s.now(),
		Source:    source,
	}
	if err := s.repo.Event.Create(ctx, event); err != nil {
		s.logger.Error("写入打卡事件失败", zap.String("user_id", userID), zap.String("type", string(eventType)), zap.Error(err))
		return nil, err
	}

	s.logger.Info("打卡成功",
		zap.String("user_id", userID),
		zap.String("type", string(eventType)),
		zap.String("source", source),
	)

	resp := &dto.ClockResponse{Event: toEventResponse(event, s.loc)}
	if !recompute {
		return resp, nil
	}
	summary, err := s.RecomputeDay(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	if summary != nil {
		d := toDaySummaryResponse(summary)
		resp.Summary = &d
	}
	return resp, nil
}

func (s *attendanceService) ClockIn(ctx context.Context, userID string, req *dto.ClockInRequest) (*dto.ClockResponse, error) {
	startType := model.EventWorkOnsiteStart
	if req.Mode == "remote" {
		startType = model.EventWorkRemoteStart
	}

	today, events, err := s.todayEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		if e.Type == startType {
			return nil, ErrAlreadyClockedIn
		}
	}

	return s.record(ctx, userID, startType, req.Source, today, true)
}

func (s *attendanceService) ClockOut(ctx context.Context, userID string, req *dto.ClockActionRequest) (*dto.ClockResponse, error) {
	today, events, err := s.todayEvents(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 下班类型跟随最近一次上班类型
	var lastStart *model.AttendanceEvent
	for i := range events {
		if events[i].Type.IsWorkStart() {
			lastStart = &events[i]
		}
	}
	if lastStart == nil {
		return nil, ErrNotClockedIn
	}
	endType := model.EventWorkOnsiteEnd
	if lastStart.Type == model.EventWorkRemoteStart {
		endType = model.EventWorkRemoteEnd
	}
	for _, e := range events {
		if e.Type == endType && !e.Timestamp.Before(lastStart.Timestamp) {
			return nil, ErrAlreadyClockedOut
		}
	}

	resp, err := s.record(ctx, userID, endType, req.Source, today, true)
	if err != nil {
		return nil, err
	}
	s.notifyClockOut(ctx, userID, resp.Summary)
	return resp, nil
}

// lastBreakEvent 今日最后一条外出休息事件
func lastBreakEvent(events []model.AttendanceEvent) *model.AttendanceEvent {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == model.EventBreakOffsiteStart || events[i].Type == model.EventBreakOffsiteEnd {
			return &events[i]
		}
	}
	return nil
}

func (s *attendanceService) BreakStart(ctx context.Context, userID string, req *dto.ClockActionRequest) (*dto.ClockResponse, error) {
	today, events, err := s.todayEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	if currentStatus(events) == StatusNotStarted {
		return nil, ErrNotClockedIn
	}
	if last := lastBreakEvent(events); last != nil && last.Type == model.EventBreakOffsiteStart {
		return nil, ErrAlreadyOnBreak
	}
	// 未结束的休息段不参与计算，无需重算
	return s.record(ctx, userID, model.EventBreakOffsiteStart, req.Source, today, false)
}

func (s *attendanceService) BreakEnd(ctx context.Context, userID string, req *dto.ClockActionRequest) (*dto.ClockResponse, error) {
	today, events, err := s.todayEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	if last := lastBreakEvent(events); last == nil || last.Type != model.EventBreakOffsiteStart {
		return nil, ErrNoActiveBreak
	}
	return s.record(ctx, userID, model.EventBreakOffsiteEnd, req.Source, today, true)
}

// notifyClockOut 下班后私信当日工时，推送失败只记录日志
func (s *attendanceService) notifyClockOut(ctx context.Context, userID string, summary *dto.DaySummaryResponse) {
	if summary == nil {
		return
	}
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil || user.SlackUserID == "" {
		return
	}
	msg := fmt.Sprintf("%s 下班打卡成功，今日工时 %.2f 小时。%s",
		summary.Date, summary.TotalWorkHours, summary.StatusNotes)
	if err := s.notifier.NotifyUser(ctx, user.SlackUserID, msg); err != nil {
		s.logger.Warn("推送下班通知失败", zap.String("user_id", userID), zap.Error(err))
	}
}

// ────────────────────── 查询 ──────────────────────

// currentStatus 由今日事件推导当前状态
func currentStatus(events []model.AttendanceEvent) string {
	var (
		open    model.EventType
		started bool
		onBreak bool
	)
	for _, e := range events {
		switch e.Type {
		case model.EventWorkOnsiteStart, model.EventWorkRemoteStart:
			open, started = e.Type, true
		case model.EventWorkOnsiteEnd:
			if open == model.EventWorkOnsiteStart {
				open = ""
			}
		case model.EventWorkRemoteEnd:
			if open == model.EventWorkRemoteStart {
				open = ""
			}
		case model.EventBreakOffsiteStart:
			onBreak = true
		case model.EventBreakOffsiteEnd:
			onBreak = false
		}
	}

	switch {
	case !started:
		return StatusNotStarted
	case open == "":
		return StatusFinished
	case onBreak:
		return StatusOnBreak
	case open == model.EventWorkRemoteStart:
		return StatusWorkingRemote
	default:
		return StatusWorkingOnsite
	}
}

func (s *attendanceService) GetTodayStatus(ctx context.Context, userID string) (*dto.TodayStatusResponse, error) {
	today, events, err := s.todayEvents(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.TodayStatusResponse{
		Date:   timeutil.FormatDate(today),
		Status: currentStatus(events),
		Events: make([]dto.EventResponse, 0, len(events)),
	}
	for i := range events {
		resp.Events = append(resp.Events, toEventResponse(&events[i], s.loc))
	}

	term, err := s.schedule.CurrentSchedule(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	if term != nil {
		if day, ok := term.BaseSchedule.For(today.Weekday()); ok {
			resp.Schedule = &dto.DayScheduleDTO{Start: day.Start, End: day.End}
		}
	}

	summary, err := s.repo.DaySummary.GetByUserDate(ctx, userID, today)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if summary != nil {
		d := toDaySummaryResponse(summary)
		resp.Summary = &d
	}
	return resp, nil
}

func (s *attendanceService) GetDaySummary(ctx context.Context, userID, date string) (*dto.DaySummaryResponse, error) {
	day, err := timeutil.ParseDate(date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	summary, err := s.repo.DaySummary.GetByUserDate(ctx, userID, day)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// 尚未生成时按需计算
		if summary, err = s.RecomputeDay(ctx, userID, day); err != nil {
			return nil, err
		}
		if summary == nil {
			return nil, ErrSummaryNotFound
		}
	}
	resp := toDaySummaryResponse(summary)
	return &resp, nil
}

func (s *attendanceService) GetMonthSummary(ctx context.Context, userID, yearMonth string) (*dto.MonthSummaryResponse, error) {
	first, last, err := timeutil.ParseYearMonth(yearMonth)
	if err != nil {
		return nil, ErrInvalidYearMonth
	}

	summaries, err := s.repo.DaySummary.ListByUserBetween(ctx, userID, first, last)
	if err != nil {
		s.logger.Error("查询月度日汇总失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := &dto.MonthSummaryResponse{
		YearMonth: yearMonth,
		Days:      make([]dto.DaySummaryResponse, 0, len(summaries)),
		Stats:     monthStats(summaries),
	}
	for i := range summaries {
		resp.Days = append(resp.Days, toDaySummaryResponse(&summaries[i]))
	}
	return resp, nil
}

func monthStats(summaries []model.DaySummary) dto.MonthStats {
	var st dto.MonthStats
	st.TotalDays = len(summaries)
	for _, d := range summaries {
		st.TotalWorkSeconds += d.TotalWorkSeconds
		st.OnsiteSeconds += d.WorkOnsiteSeconds
		st.RemoteSeconds += d.WorkRemoteSeconds
		if d.IsLate {
			st.LateDays++
		}
		if d.IsEarlyLeave {
			st.EarlyLeaveDays++
		}
		if d.DayKind == model.DayKindWorkdayAbsent {
			st.AbsentDays++
		}
	}
	if st.TotalDays > 0 {
		st.AverageWorkHours = round2(float64(st.TotalWorkSeconds) / 3600 / float64(st.TotalDays))
	}
	return st
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ── 转换 ──

func toEventResponse(e *model.AttendanceEvent, loc *time.Location) dto.EventResponse {
	return dto.EventResponse{
		ID:        e.ID,
		Type:      string(e.Type),
		Timestamp: e.Timestamp.In(loc).Format(time.RFC3339),
		Source:    e.Source,
	}
}

func toDaySummaryResponse(d *model.DaySummary) dto.DaySummaryResponse {
	return dto.DaySummaryResponse{
		Date:                timeutil.FormatDate(d.Date),
		DayKind:             string(d.DayKind),
		WorkOnsiteSeconds:   d.WorkOnsiteSeconds,
		WorkRemoteSeconds:   d.WorkRemoteSeconds,
		TotalWorkSeconds:    d.TotalWorkSeconds,
		TotalWorkHours:      round2(float64(d.TotalWorkSeconds) / 3600),
		ScheduledSeconds:    d.ScheduledSeconds,
		IsLate:              d.IsLate,
		LateMinutes:         d.LateMinutes,
		IsEarlyLeave:        d.IsEarlyLeave,
		EarlyLeaveMinutes:   d.EarlyLeaveMinutes,
		IsAbsent:            d.IsAbsent,
		LunchBreakSeconds:   d.LunchBreakSeconds,
		LunchOverlapSeconds: d.LunchOverlapSeconds,
		BreakOffsiteSeconds: d.BreakOffsiteSeconds,
		HasAdvanceNotice:    d.HasAdvanceNotice,
		StatusNotes:         d.StatusNotes,
	}
}
