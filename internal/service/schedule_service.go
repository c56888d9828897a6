package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"timeclock/internal/dto"
	"timeclock/internal/model"
	"timeclock/internal/repository"
	pkgerrors "timeclock/pkg/errors"
	"timeclock/pkg/timeutil"
)

// ── 排班（实习期）模块业务错误 ──

var (
	ErrTermNotFound    = errors.New("实习期不存在")
	ErrTermOverlap     = errors.New("与已确认的实习期日期重叠")
	ErrTermDateInvalid = errors.New("实习期结束日期不能早于开始日期")
	ErrTermNotPending  = errors.New("仅待确认的实习期可以修改或确认")
	ErrScheduleInvalid = errors.New("排班配置无效")
	ErrVersionConflict = errors.New("数据已被他人修改，请刷新后重试")
)

// defaultWorkdays 未指定排班时默认的工作日
var defaultWorkdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

// ScheduleService 排班解析与实习期管理
type ScheduleService interface {
	// CurrentSchedule 返回覆盖 date 的已确认实习期；不存在时返回 nil, nil
	// 多个已确认实习期同时覆盖时取 start_date 最晚者，再按 created_at 最晚者
	CurrentSchedule(ctx context.Context, userID string, date time.Time) (*model.InternshipTerm, error)

	CreateTerm(ctx context.Context, req *dto.CreateTermRequest, callerID string) (*dto.TermResponse, error)
	UpdateTerm(ctx context.Context, id string, req *dto.UpdateTermRequest, callerID string) (*dto.TermResponse, error)
	ConfirmTerm(ctx context.Context, id string, version int, callerID string) (*dto.TermResponse, error)
	CancelTerm(ctx context.Context, id string, version int, callerID string) (*dto.TermResponse, error)
	ListTerms(ctx context.Context, userID string) ([]dto.TermResponse, error)
}

type scheduleService struct {
	repo   *repository.Repository
	config SystemConfigService
	logger *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(repo *repository.Repository, config SystemConfigService, logger *zap.Logger) ScheduleService {
	return &scheduleService{repo: repo, config: config, logger: logger}
}

// ────────────────────── CurrentSchedule ──────────────────────

func (s *scheduleService) CurrentSchedule(ctx context.Context, userID string, date time.Time) (*model.InternshipTerm, error) {
	terms, err := s.repo.Term.ListConfirmedCovering(ctx, userID, timeutil.Date(date))
	if err != nil {
		s.logger.Error("查询实习期失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if len(terms) == 0 {
		return nil, nil
	}
	return &terms[0], nil
}

// ────────────────────── CreateTerm ──────────────────────

func (s *scheduleService) CreateTerm(ctx context.Context, req *dto.CreateTermRequest, callerID string) (*dto.TermResponse, error) {
	if _, err := s.repo.User.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	start, end, err := parseTermDates(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	schedule := fromScheduleDTO(req.BaseSchedule)
	if len(schedule) == 0 {
		if schedule, err = s.defaultSchedule(ctx); err != nil {
			return nil, err
		}
	}
	if err := schedule.Validate(); err != nil {
		return nil, ErrScheduleInvalid
	}

	term := &model.InternshipTerm{
		UserID:       req.UserID,
		StartDate:    start,
		EndDate:      end,
		Status:       model.TermStatusPending,
		BaseSchedule: schedule,
	}
	term.CreatedBy = &callerID
	term.UpdatedBy = &callerID

	if err := s.repo.Term.Create(ctx, term); err != nil {
		s.logger.Error("创建实习期失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("实习期已创建",
		zap.String("term_id", term.ID),
		zap.String("user_id", term.UserID),
	)
	resp := toTermResponse(term)
	return &resp, nil
}

// defaultSchedule 按 work_start_time / work_end_time 生成周一至周五排班
func (s *scheduleService) defaultSchedule(ctx context.Context) (model.WeeklySchedule, error) {
	start, err := s.config.GetString(ctx, KeyWorkStartTime)
	if err != nil {
		return nil, err
	}
	end, err := s.config.GetString(ctx, KeyWorkEndTime)
	if err != nil {
		return nil, err
	}
	schedule := make(model.WeeklySchedule, len(defaultWorkdays))
	for _, day := range defaultWorkdays {
		schedule[day] = model.DaySchedule{Start: start, End: end}
	}
	return schedule, nil
}

// ────────────────────── UpdateTerm ──────────────────────

func (s *scheduleService) UpdateTerm(ctx context.Context, id string, req *dto.UpdateTermRequest, callerID string) (*dto.TermResponse, error) {
	term, err := s.getTerm(ctx, id)
	if err != nil {
		return nil, err
	}
	if term.Status != model.TermStatusPending {
		return nil, ErrTermNotPending
	}
	if term.Version != req.Version {
		return nil, ErrVersionConflict
	}

	startStr, endStr := timeutil.FormatDate(term.StartDate), timeutil.FormatDate(term.EndDate)
	if req.StartDate != nil {
		startStr = *req.StartDate
	}
	if req.EndDate != nil {
		endStr = *req.EndDate
	}
	if term.StartDate, term.EndDate, err = parseTermDates(startStr, endStr); err != nil {
		return nil, err
	}
	if len(req.BaseSchedule) > 0 {
		schedule := fromScheduleDTO(req.BaseSchedule)
		if err := schedule.Validate(); err != nil {
			return nil, ErrScheduleInvalid
		}
		term.BaseSchedule = schedule
	}
	term.UpdatedBy = &callerID

	if err := s.save(ctx, term); err != nil {
		return nil, err
	}
	resp := toTermResponse(term)
	return &resp, nil
}

// ────────────────────── Confirm / Cancel ──────────────────────

func (s *scheduleService) ConfirmTerm(ctx context.Context, id string, version int, callerID string) (*dto.TermResponse, error) {
	term, err := s.getTerm(ctx, id)
	if err != nil {
		return nil, err
	}
	if term.Status != model.TermStatusPending {
		return nil, ErrTermNotPending
	}
	if term.Version != version {
		return nil, ErrVersionConflict
	}
	if err := term.BaseSchedule.Validate(); err != nil {
		return nil, ErrScheduleInvalid
	}

	// 同一用户的已确认实习期不得重叠
	others, err := s.repo.Term.ListByUser(ctx, term.UserID)
	if err != nil {
		return nil, err
	}
	for i := range others {
		o := &others[i]
		if o.ID == term.ID || o.Status != model.TermStatusConfirmed {
			continue
		}
		if term.Overlaps(o) {
			return nil, ErrTermOverlap
		}
	}

	term.Status = model.TermStatusConfirmed
	term.UpdatedBy = &callerID
	if err := s.save(ctx, term); err != nil {
		return nil, err
	}

	s.logger.Info("实习期已确认", zap.String("term_id", term.ID), zap.String("by", callerID))
	resp := toTermResponse(term)
	return &resp, nil
}

func (s *scheduleService) CancelTerm(ctx context.Context, id string, version int, callerID string) (*dto.TermResponse, error) {
	term, err := s.getTerm(ctx, id)
	if err != nil {
		return nil, err
	}
	if term.Version != version {
		return nil, ErrVersionConflict
	}
	term.Status = model.TermStatusCancelled
	term.UpdatedBy = &callerID
	if err := s.save(ctx, term); err != nil {
		return nil, err
	}
	resp := toTermResponse(term)
	return &resp, nil
}

// ────────────────────── ListTerms ──────────────────────

func (s *scheduleService) ListTerms(ctx context.Context, userID string) ([]dto.TermResponse, error) {
	terms, err := s.repo.Term.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询实习期列表失败", zap.Error(err))
		return nil, err
	}
	out := make([]dto.TermResponse, 0, len(terms))
	for i := range terms {
		out = append(out, toTermResponse(&terms[i]))
	}
	return out, nil
}

// ── 内部方法 ──

func (s *scheduleService) getTerm(ctx context.Context, id string) (*model.InternshipTerm, error) {
	term, err := s.repo.Term.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTermNotFound
		}
		return nil, err
	}
	return term, nil
}

func (s *scheduleService) save(ctx context.Context, term *model.InternshipTerm) error {
	if err := s.repo.Term.Update(ctx, term); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrVersionConflict
		}
		s.logger.Error("更新实习期失败", zap.String("term_id", term.ID), zap.Error(err))
		return err
	}
	return nil
}

func parseTermDates(startStr, endStr string) (start, end time.Time, err error) {
	if start, err = timeutil.ParseDate(startStr); err != nil {
		return start, end, ErrInvalidDate
	}
	if end, err = timeutil.ParseDate(endStr); err != nil {
		return start, end, ErrInvalidDate
	}
	if end.Before(start) {
		return start, end, ErrTermDateInvalid
	}
	return start, end, nil
}

func fromScheduleDTO(in map[string]dto.DayScheduleDTO) model.WeeklySchedule {
	if len(in) == 0 {
		return nil
	}
	out := make(model.WeeklySchedule, len(in))
	for day, d := range in {
		out[day] = model.DaySchedule{Start: d.Start, End: d.End}
	}
	return out
}

func toScheduleDTO(in model.WeeklySchedule) map[string]dto.DayScheduleDTO {
	out := make(map[string]dto.DayScheduleDTO, len(in))
	for day, d := range in {
		out[day] = dto.DayScheduleDTO{Start: d.Start, End: d.End}
	}
	return out
}

func toTermResponse(t *model.InternshipTerm) dto.TermResponse {
	return dto.TermResponse{
		ID:           t.ID,
		UserID:       t.UserID,
		StartDate:    timeutil.FormatDate(t.StartDate),
		EndDate:      timeutil.FormatDate(t.EndDate),
		Status:       t.Status,
		BaseSchedule: toScheduleDTO(t.BaseSchedule),
		Version:      t.Version,
	}
}
