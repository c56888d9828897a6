package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"timeclock/internal/dto"
	"timeclock/internal/model"
	"timeclock/internal/repository"
	pkgerrors "timeclock/pkg/errors"
	"timeclock/pkg/notify"
	"timeclock/pkg/timeutil"
)

// ── 补打卡模块业务错误 ──

var (
	ErrRetroNotFound    = errors.New("补打卡申请不存在")
	ErrRetroInFuture    = errors.New("补打卡时间不能晚于当前时间")
	ErrRetroTypeInvalid = errors.New("无效的补打卡类型")
)

// retroTypeAliases 申请中的简写类型映射为事件类型
var retroTypeAliases = map[string]model.EventType{
	"BREAK_START": model.EventBreakOffsiteStart,
	"BREAK_END":   model.EventBreakOffsiteEnd,
}

// RetroClockService 补打卡业务接口
type RetroClockService interface {
	Create(ctx context.Context, userID string, req *dto.CreateRetroClockRequest) (*dto.RetroClockResponse, error)
	List(ctx context.Context, query *dto.RequestListQuery) ([]dto.RetroClockResponse, error)
	Get(ctx context.Context, id string) (*dto.RetroClockResponse, error)
	// Approve 通过后以 RETRO_APPROVED 来源写入打卡事件，并重算目标日期的日汇总
	Approve(ctx context.Context, id string, req *dto.ReviewRequest, approverID string) (*dto.RetroClockResponse, error)
	Reject(ctx context.Context, id string, req *dto.ReviewRequest, approverID string) (*dto.RetroClockResponse, error)
	Stats(ctx context.Context, userID, yearMonth string) (*dto.RetroClockStats, error)
}

type retroClockService struct {
	repo       *repository.Repository
	attendance AttendanceService
	notifier   notify.Notifier
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger
}

// NewRetroClockService 创建 RetroClockService 实例
func NewRetroClockService(
	repo *repository.Repository,
	attendance AttendanceService,
	notifier notify.Notifier,
	loc *time.Location,
	logger *zap.Logger,
) RetroClockService {
	return &retroClockService{
		repo:       repo,
		attendance: attendance,
		notifier:   notifier,
		loc:        loc,
		now:        time.Now,
		logger:     logger,
	}
}

func parseRetroType(s string) (model.EventType, error) {
	if t, ok := retroTypeAliases[s]; ok {
		return t, nil
	}
	t := model.EventType(s)
	if !t.Valid() {
		return "", ErrRetroTypeInvalid
	}
	return t, nil
}

// ────────────────────── Create ──────────────────────

func (s *retroClockService) Create(ctx context.Context, userID string, req *dto.CreateRetroClockRequest) (*dto.RetroClockResponse, error) {
	date, err := timeutil.ParseDate(req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	clock, err := model.ParseClockTime(req.Time)
	if err != nil {
		return nil, ErrInvalidDate
	}
	eventType, err := parseRetroType(req.Type)
	if err != nil {
		return nil, err
	}
	if clock.On(date, s.loc).After(s.now()) {
		return nil, ErrRetroInFuture
	}

	retro := &model.RetroClockRequest{
		UserID:          userID,
		Date:            date,
		Time:            clock.String(),
		Type:            eventType,
		Reason:          req.Reason,
		ImprovementPlan: req.ImprovementPlan,
		AttachmentKeys:  model.StringList(req.AttachmentKeys),
	}
	retro.Status = model.RequestStatusPending
	retro.CreatedBy = &userID
	retro.UpdatedBy = &userID

	if err := s.repo.RetroClock.Create(ctx, retro); err != nil {
		s.logger.Error("创建补打卡申请失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("补打卡申请已提交",
		zap.String("retro_id", retro.ID),
		zap.String("user_id", userID),
		zap.String("date", req.Date),
	)
	resp := toRetroResponse(retro)
	return &resp, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *retroClockService) List(ctx context.Context, query *dto.RequestListQuery) ([]dto.RetroClockResponse, error) {
	filter, err := toRequestFilter(query)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.RetroClock.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询补打卡列表失败", zap.Error(err))
		return nil, err
	}
	out := make([]dto.RetroClockResponse, 0, len(list))
	for i := range list {
		out = append(out, toRetroResponse(&list[i]))
	}
	return out, nil
}

func (s *retroClockService) Get(ctx context.Context, id string) (*dto.RetroClockResponse, error) {
	retro, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toRetroResponse(retro)
	return &resp, nil
}

func (s *retroClockService) get(ctx context.Context, id string) (*model.RetroClockRequest, error) {
	retro, err := s.repo.RetroClock.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRetroNotFound
		}
		return nil, err
	}
	return retro, nil
}

// ────────────────────── Approve ──────────────────────

func (s *retroClockService) Approve(ctx context.Context, id string, req *dto.ReviewRequest, approverID string) (*dto.RetroClockResponse, error) {
	retro, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if retro.Status != model.RequestStatusPending {
		return nil, ErrRequestNotPending
	}
	clock, err := model.ParseClockTime(retro.Time)
	if err != nil {
		return nil, ErrInvalidDate
	}

	reviewedAt := s.now().UTC()
	retro.Version = req.Version
	retro.Status = model.RequestStatusApproved
	retro.ApproverID = &approverID
	retro.ReviewNotes = req.Notes
	retro.ReviewedAt = &reviewedAt
	retro.UpdatedBy = &approverID

	event := &model.AttendanceEvent{
		UserID:           retro.UserID,
		Type:             retro.Type,
		Timestamp:        clock.On(retro.Date, s.loc),
		Source:           model.SourceRetroApproved,
		RelatedRequestID: &retro.ID,
		Metadata: model.JSONMap{
			"approved_by":      approverID,
			"reason":           retro.Reason,
			"improvement_plan": retro.ImprovementPlan,
		},
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Event.Create(ctx, event); err != nil {
			return err
		}
		retro.EventID = &event.ID
		if err := tx.RetroClock.UpdateReview(ctx, retro); err != nil {
			return err
		}
		return tx.AuditLog.Create(ctx, &model.AuditLog{
			ActorID:    approverID,
			Action:     model.AuditApproveRetroClock,
			TargetType: "retro_clock_request",
			TargetID:   retro.ID,
			Changes: model.JSONMap{
				"status":   model.RequestStatusApproved,
				"notes":    req.Notes,
				"event_id": event.ID,
			},
		})
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrVersionConflict
		}
		s.logger.Error("审批补打卡申请失败", zap.String("retro_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("补打卡申请已通过",
		zap.String("retro_id", id),
		zap.String("event_id", event.ID),
		zap.String("by", approverID),
	)

	if _, err := s.attendance.RecomputeDay(ctx, retro.UserID, retro.Date); err != nil {
		return nil, fmt.Errorf("补打卡已通过，但重算日汇总失败: %w", err)
	}

	s.notifyReview(ctx, retro)
	resp := toRetroResponse(retro)
	return &resp, nil
}

// ────────────────────── Reject ──────────────────────

func (s *retroClockService) Reject(ctx context.Context, id string, req *dto.ReviewRequest, approverID string) (*dto.RetroClockResponse, error) {
	retro, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if retro.Status != model.RequestStatusPending {
		return nil, ErrRequestNotPending
	}

	reviewedAt := s.now().UTC()
	retro.Version = req.Version
	retro.Status = model.RequestStatusRejected
	retro.ApproverID = &approverID
	retro.ReviewNotes = req.Notes
	retro.ReviewedAt = &reviewedAt
	retro.UpdatedBy = &approverID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.RetroClock.UpdateReview(ctx, retro); err != nil {
			return err
		}
		return tx.AuditLog.Create(ctx, &model.AuditLog{
			ActorID:    approverID,
			Action:     model.AuditRejectRetroClock,
			TargetType: "retro_clock_request",
			TargetID:   retro.ID,
			Changes:    model.JSONMap{"status": model.RequestStatusRejected, "notes": req.Notes},
		})
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrVersionConflict
		}
		s.logger.Error("驳回补打卡申请失败", zap.String("retro_id", id), zap.Error(err))
		return nil, err
	}

	s.notifyReview(ctx, retro)
	resp := toRetroResponse(retro)
	return &resp, nil
}

func (s *retroClockService) notifyReview(ctx context.Context, retro *model.RetroClockRequest) {
	if retro.User == nil || retro.User.SlackUserID == "" {
		return
	}
	result := "已通过"
	if retro.Status == model.RequestStatusRejected {
		result = "未通过"
	}
	msg := fmt.Sprintf("您 %s %s 的补打卡申请%s。%s",
		timeutil.FormatDate(retro.Date), retro.Time, result, retro.ReviewNotes)
	if err := s.notifier.NotifyUser(ctx, retro.User.SlackUserID, msg); err != nil {
		s.logger.Warn("推送补打卡审批结果失败", zap.String("retro_id", retro.ID), zap.Error(err))
	}
}

// ────────────────────── Stats ──────────────────────

func (s *retroClockService) Stats(ctx context.Context, userID, yearMonth string) (*dto.RetroClockStats, error) {
	first, last, err := timeutil.ParseYearMonth(yearMonth)
	if err != nil {
		return nil, ErrInvalidYearMonth
	}
	list, err := s.repo.RetroClock.ListByUserBetween(ctx, userID, "", first, last)
	if err != nil {
		return nil, err
	}
	st := &dto.RetroClockStats{YearMonth: yearMonth, Total: len(list)}
	for _, r := range list {
		switch r.Status {
		case model.RequestStatusApproved:
			st.Approved++
		case model.RequestStatusPending:
			st.Pending++
		case model.RequestStatusRejected:
			st.Rejected++
		}
	}
	return st, nil
}

func toRetroResponse(r *model.RetroClockRequest) dto.RetroClockResponse {
	resp := dto.RetroClockResponse{
		ID:              r.ID,
		UserID:          r.UserID,
		Date:            timeutil.FormatDate(r.Date),
		Time:            r.Time,
		Type:            string(r.Type),
		Reason:          r.Reason,
		ImprovementPlan: r.ImprovementPlan,
		AttachmentKeys:  []string(r.AttachmentKeys),
		Review:          toReviewInfo(r.Review),
		Version:         r.Version,
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if resp.AttachmentKeys == nil {
		resp.AttachmentKeys = []string{}
	}
	if r.EventID != nil {
		resp.EventID = *r.EventID
	}
	if r.User != nil {
		resp.UserName = r.User.Name
	}
	return resp
}
