package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"timeclock/internal/dto"
	"timeclock/internal/model"
	"timeclock/internal/repository"
	"timeclock/pkg/timeutil"
)

// ── 预先告知模块业务错误 ──

var (
	ErrNoticeDatePast = errors.New("不能为过去的日期提交预先告知")
	ErrNoticeTooLate  = errors.New("迟到告知需在上班前提交")
)

// AdvanceNoticeService 预先告知业务接口
type AdvanceNoticeService interface {
	Create(ctx context.Context, userID string, req *dto.CreateAdvanceNoticeRequest) (*dto.AdvanceNoticeResponse, error)
	ListMine(ctx context.Context, userID string, isUsed *bool) ([]dto.AdvanceNoticeResponse, error)
	Stats(ctx context.Context, userID, yearMonth string) (*dto.AdvanceNoticeStats, error)
}

type advanceNoticeService struct {
	repo     *repository.Repository
	schedule ScheduleService
	config   SystemConfigService
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewAdvanceNoticeService 创建 AdvanceNoticeService 实例
func NewAdvanceNoticeService(
	repo *repository.Repository,
	schedule ScheduleService,
	config SystemConfigService,
	loc *time.Location,
	logger *zap.Logger,
) AdvanceNoticeService {
	return &advanceNoticeService{
		repo:     repo,
		schedule: schedule,
		config:   config,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *advanceNoticeService) Create(ctx context.Context, userID string, req *dto.CreateAdvanceNoticeRequest) (*dto.AdvanceNoticeResponse, error) {
	date, err := timeutil.ParseDate(req.ExpectedDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	now := s.now()
	today := timeutil.CivilDate(now, s.loc)
	if date.Before(today) {
		return nil, ErrNoticeDatePast
	}

	// 当日迟到告知需在排班上班时间前 advance_notice_minutes 分钟提交
	if req.NoticeType == model.NoticeTypeLate && date.Equal(today) {
		if err := s.checkLateDeadline(ctx, userID, date, now); err != nil {
			return nil, err
		}
	}

	source := req.Source
	if source == "" {
		source = model.SourceWeb
	}
	notice := &model.AdvanceNotice{
		UserID:          userID,
		NoticeType:      req.NoticeType,
		ExpectedDate:    date,
		ExpectedMinutes: req.ExpectedMinutes,
		Reason:          req.Reason,
		Source:          source,
	}
	if err := s.repo.AdvanceNotice.Create(ctx, notice); err != nil {
		s.logger.Error("创建预先告知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("预先告知已提交",
		zap.String("user_id", userID),
		zap.String("type", notice.NoticeType),
		zap.String("date", req.ExpectedDate),
	)
	resp := toNoticeResponse(notice)
	return &resp, nil
}

func (s *advanceNoticeService) checkLateDeadline(ctx context.Context, userID string, date, now time.Time) error {
	term, err := s.schedule.CurrentSchedule(ctx, userID, date)
	if err != nil {
		return err
	}
	if term == nil {
		return nil
	}
	day, ok := term.BaseSchedule.For(date.Weekday())
	if !ok {
		return nil
	}
	start, _, err := day.Bounds()
	if err != nil {
		return ErrScheduleInvalid
	}
	minutes, err := s.config.GetInt(ctx, KeyAdvanceNoticeMinutes)
	if err != nil {
		return err
	}
	deadline := start.On(date, s.loc).Add(-time.Duration(minutes) * time.Minute)
	if now.After(deadline) {
		return ErrNoticeTooLate
	}
	return nil
}

// ────────────────────── 查询 ──────────────────────

func (s *advanceNoticeService) ListMine(ctx context.Context, userID string, isUsed *bool) ([]dto.AdvanceNoticeResponse, error) {
	notices, err := s.repo.AdvanceNotice.ListByUser(ctx, userID, isUsed)
	if err != nil {
		s.logger.Error("查询预先告知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	out := make([]dto.AdvanceNoticeResponse, 0, len(notices))
	for i := range notices {
		out = append(out, toNoticeResponse(&notices[i]))
	}
	return out, nil
}

func (s *advanceNoticeService) Stats(ctx context.Context, userID, yearMonth string) (*dto.AdvanceNoticeStats, error) {
	first, last, err := timeutil.ParseYearMonth(yearMonth)
	if err != nil {
		return nil, ErrInvalidYearMonth
	}
	notices, err := s.repo.AdvanceNotice.ListByUserBetween(ctx, userID, first, last)
	if err != nil {
		return nil, err
	}

	st := &dto.AdvanceNoticeStats{YearMonth: yearMonth, Total: len(notices)}
	for _, n := range notices {
		switch n.NoticeType {
		case model.NoticeTypeLate:
			st.LateCount++
		case model.NoticeTypeLeave:
			st.LeaveCount++
		}
		if n.IsUsed {
			st.UsedCount++
		}
	}
	return st, nil
}

func toNoticeResponse(n *model.AdvanceNotice) dto.AdvanceNoticeResponse {
	return dto.AdvanceNoticeResponse{
		ID:              n.ID,
		NoticeType:      n.NoticeType,
		ExpectedDate:    timeutil.FormatDate(n.ExpectedDate),
		ExpectedMinutes: n.ExpectedMinutes,
		Reason:          n.Reason,
		Source:          n.Source,
		IsUsed:          n.IsUsed,
		CreatedAt:       n.CreatedAt.UTC().Format(time.RFC3339),
	}
}
