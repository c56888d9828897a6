package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"timeclock/internal/model"
	"timeclock/internal/repository"
	"timeclock/pkg/notify"
	"timeclock/pkg/timeutil"
)

// 提醒类型
const (
	ReminderMissingClockIn  = "missing_clock_in"
	ReminderMissingClockOut = "missing_clock_out"
)

// ReminderResult 一次提醒任务的执行结果
type ReminderResult struct {
	Date          string
	Checked       int
	ClockInSent   int
	ClockOutSent  int
	Failed        []string // 推送失败的工号
	DigestSent    bool
	DigestMonth   string
	SkippedNoTerm int
}

// ReminderService 考勤提醒业务接口
//
// 由外部调度（cron → timeclockctl remind）触发，本身不常驻定时器：
//   - 排班开始 + 宽限后仍无上班打卡 → 私信提醒上班打卡
//   - 排班结束后仍处于上班状态 → 私信提醒下班打卡
//   - 指定 digest 时向信息频道广播当月积分排名
type ReminderService interface {
	Remind(ctx context.Context, date string, digest bool) (*ReminderResult, error)
}

type reminderService struct {
	repo     *repository.Repository
	schedule ScheduleService
	config   SystemConfigService
	score    ScoreService
	notifier notify.Notifier
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewReminderService 创建 ReminderService 实例
func NewReminderService(
	repo *repository.Repository,
	schedule ScheduleService,
	config SystemConfigService,
	score ScoreService,
	notifier notify.Notifier,
	loc *time.Location,
	logger *zap.Logger,
) ReminderService {
	return &reminderService{
		repo:     repo,
		schedule: schedule,
		config:   config,
		score:    score,
		notifier: notifier,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *reminderService) Remind(ctx context.Context, dateStr string, digest bool) (*ReminderResult, error) {
	now := s.now()
	date := timeutil.CivilDate(now, s.loc)
	if dateStr != "" {
		d, err := timeutil.ParseDate(dateStr)
		if err != nil {
			return nil, ErrInvalidDate
		}
		date = d
	}

	rules, err := s.config.LoadRules(ctx)
	if err != nil {
		return nil, err
	}
	interns, err := s.repo.User.ListActiveInterns(ctx)
	if err != nil {
		s.logger.Error("查询在职实习生失败", zap.Error(err))
		return nil, err
	}

	result := &ReminderResult{Date: timeutil.FormatDate(date)}
	for i := range interns {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		u := &interns[i]
		kind, err := s.check(ctx, u, date, now, rules)
		if err != nil {
			s.logger.Warn("检查打卡状态失败", zap.String("user_id", u.ID), zap.Error(err))
			result.Failed = append(result.Failed, u.Code)
			continue
		}
		result.Checked++
		switch kind {
		case "":
			continue
		case reminderNoTerm:
			result.SkippedNoTerm++
			continue
		}

		if err := s.send(ctx, u, kind, date); err != nil {
			s.logger.Warn("推送打卡提醒失败", zap.String("user_id", u.ID), zap.String("kind", kind), zap.Error(err))
			result.Failed = append(result.Failed, u.Code)
			continue
		}
		if kind == ReminderMissingClockIn {
			result.ClockInSent++
		} else {
			result.ClockOutSent++
		}
	}

	if digest {
		result.DigestMonth = timeutil.YearMonth(date)
		if err := s.score.BroadcastRanking(ctx, result.DigestMonth); err != nil {
			s.logger.Warn("广播月度排名失败", zap.String("year_month", result.DigestMonth), zap.Error(err))
		} else {
			result.DigestSent = true
		}
	}

	s.logger.Info("考勤提醒执行完成",
		zap.String("date", result.Date),
		zap.Int("checked", result.Checked),
		zap.Int("clock_in_sent", result.ClockInSent),
		zap.Int("clock_out_sent", result.ClockOutSent),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

// reminderNoTerm 当日无已确认实习期，不提醒但单独计数
const reminderNoTerm = "no_term"

// check 判断需要发送的提醒类型，空串表示无需提醒
func (s *reminderService) check(ctx context.Context, u *model.User, date, now time.Time, rules AttendanceRules) (string, error) {
	term, err := s.schedule.CurrentSchedule(ctx, u.ID, date)
	if err != nil {
		return "", err
	}
	if term == nil {
		return reminderNoTerm, nil
	}
	day, ok := term.BaseSchedule.For(timeutil.At(date, 12, 0, s.loc).Weekday())
	if !ok {
		return "", nil
	}
	startClock, endClock, err := day.Bounds()
	if err != nil {
		return "", nil
	}

	dayStart, dayEnd := timeutil.DayBounds(date, s.loc)
	events, err := s.repo.Event.ListByUserBetween(ctx, u.ID, dayStart, dayEnd)
	if err != nil {
		return "", err
	}

	var lastStart, lastEnd *model.AttendanceEvent
	for i := range events {
		switch {
		case events[i].Type.IsWorkStart():
			lastStart = &events[i]
		case events[i].Type.IsWorkEnd():
			lastEnd = &events[i]
		}
	}

	deadline := startClock.On(date, s.loc).Add(time.Duration(rules.LateGraceMinutes) * time.Minute)
	if lastStart == nil {
		if now.After(deadline) {
			return ReminderMissingClockIn, nil
		}
		return "", nil
	}

	stillWorking := lastEnd == nil || lastEnd.Timestamp.Before(lastStart.Timestamp)
	if stillWorking && now.After(endClock.On(date, s.loc)) {
		return ReminderMissingClockOut, nil
	}
	return "", nil
}

func (s *reminderService) send(ctx context.Context, u *model.User, kind string, date time.Time) error {
	if u.SlackUserID == "" {
		return fmt.Errorf("用户 %s 未绑定 Slack", u.Code)
	}
	var msg string
	switch kind {
	case ReminderMissingClockIn:
		msg = fmt.Sprintf("%s，%s 尚未上班打卡，请及时打卡或提交补打卡申请。", u.Name, timeutil.FormatDate(date))
	default:
		msg = fmt.Sprintf("%s，%s 已过下班时间但尚未下班打卡，请及时打卡。", u.Name, timeutil.FormatDate(date))
	}
	return s.notifier.NotifyUser(ctx, u.SlackUserID, msg)
}
