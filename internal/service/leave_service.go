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

// ── 审批类请求共用错误 ──

var (
	ErrLeaveNotFound     = errors.New("请假申请不存在")
	ErrLeaveTimeInvalid  = errors.New("请假结束时间必须晚于开始时间")
	ErrRequestNotPending = errors.New("该申请已处理，不能重复审批")
)

// LeaveService 请假业务接口
type LeaveService interface {
	Create(ctx context.Context, userID string, req *dto.CreateLeaveRequest) (*dto.LeaveResponse, error)
	List(ctx context.Context, query *dto.RequestListQuery) ([]dto.LeaveResponse, error)
	Get(ctx context.Context, id string) (*dto.LeaveResponse, error)
	Approve(ctx context.Context, id string, req *dto.ReviewRequest, approverID string) (*dto.LeaveResponse, error)
	Reject(ctx context.Context, id string, req *dto.ReviewRequest, approverID string) (*dto.LeaveResponse, error)
	Stats(ctx context.Context, userID, yearMonth string) (*dto.LeaveStats, error)
}

type leaveService struct {
	repo     *repository.Repository
	notifier notify.Notifier
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewLeaveService 创建 LeaveService 实例
func NewLeaveService(repo *repository.Repository, notifier notify.Notifier, loc *time.Location, logger *zap.Logger) LeaveService {
	return &leaveService{repo: repo, notifier: notifier, loc: loc, now: time.Now, logger: logger}
}

// CalendarEventUID 请假在日历订阅中的 UID
func CalendarEventUID(leaveID string) string {
	return "leave-" + leaveID + "@timeclock"
}

// ────────────────────── Create ──────────────────────

func (s *leaveService) Create(ctx context.Context, userID string, req *dto.CreateLeaveRequest) (*dto.LeaveResponse, error) {
	start, err := time.Parse(time.RFC3339, req.StartDatetime)
	if err != nil {
		return nil, ErrInvalidDate
	}
	end, err := time.Parse(time.RFC3339, req.EndDatetime)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if !end.After(start) {
		return nil, ErrLeaveTimeInvalid
	}

	leave := &model.LeaveRequest{
		UserID:         userID,
		StartDatetime:  start.UTC(),
		EndDatetime:    end.UTC(),
		Type:           req.Type,
		Reason:         req.Reason,
		AttachmentKeys: model.StringList(req.AttachmentKeys),
	}
	leave.Status = model.RequestStatusPending
	leave.CreatedBy = &userID
	leave.UpdatedBy = &userID

	// 关联请假区间内首条未使用的请假告知；告知在审批通过时才标记为已使用
	if req.HasAdvanceNotice {
		from, to := timeutil.CivilDate(start, s.loc), timeutil.CivilDate(end, s.loc)
		notice, err := s.repo.AdvanceNotice.FirstUnusedOfTypeBetween(ctx, userID, model.NoticeTypeLeave, from, to)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if notice != nil {
			created := notice.CreatedAt
			leave.HasAdvanceNotice = true
			leave.AdvanceNoticeDatetime = &created
		}
	}

	if err := s.repo.Leave.Create(ctx, leave); err != nil {
		s.logger.Error("创建请假申请失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("请假申请已提交", zap.String("leave_id", leave.ID), zap.String("user_id", userID))
	resp := toLeaveResponse(leave, s.loc)
	return &resp, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *leaveService) List(ctx context.Context, query *dto.RequestListQuery) ([]dto.LeaveResponse, error) {
	filter, err := toRequestFilter(query)
	if err != nil {
		return nil, err
	}
	// 日期过滤按组织时区的整日处理
	if filter.From != nil {
		from, _ := timeutil.DayBounds(*filter.From, s.loc)
		filter.From = &from
	}
	if filter.To != nil {
		_, to := timeutil.DayBounds(*filter.To, s.loc)
		filter.To = &to
	}
	list, err := s.repo.Leave.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询请假列表失败", zap.Error(err))
		return nil, err
	}
	out := make([]dto.LeaveResponse, 0, len(list))
	for i := range list {
		out = append(out, toLeaveResponse(&list[i], s.loc))
	}
	return out, nil
}

func (s *leaveService) Get(ctx context.Context, id string) (*dto.LeaveResponse, error) {
	leave, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toLeaveResponse(leave, s.loc)
	return &resp, nil
}

func (s *leaveService) get(ctx context.Context, id string) (*model.LeaveRequest, error) {
	leave, err := s.repo.Leave.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaveNotFound
		}
		return nil, err
	}
	return leave, nil
}

// ────────────────────── Approve / Reject ──────────────────────

func (s *leaveService) Approve(ctx context.Context, id string, req *dto.ReviewRequest, approverID string) (*dto.LeaveResponse, error) {
	return s.review(ctx, id, req, approverID, model.RequestStatusApproved)
}

func (s *leaveService) Reject(ctx context.Context, id string, req *dto.ReviewRequest, approverID string) (*dto.LeaveResponse, error) {
	return s.review(ctx, id, req, approverID, model.RequestStatusRejected)
}

func (s *leaveService) review(ctx context.Context, id string, req *dto.ReviewRequest, approverID, status string) (*dto.LeaveResponse, error) {
	leave, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.Status != model.RequestStatusPending {
		return nil, ErrRequestNotPending
	}

	reviewedAt := s.now().UTC()
	leave.Version = req.Version
	leave.Status = status
	leave.ApproverID = &approverID
	leave.ReviewNotes = req.Notes
	leave.ReviewedAt = &reviewedAt
	leave.UpdatedBy = &approverID

	action := model.AuditRejectLeave
	if status == model.RequestStatusApproved {
		action = model.AuditApproveLeave
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Leave.UpdateReview(ctx, leave); err != nil {
			return err
		}
		if status == model.RequestStatusApproved {
			from, to := timeutil.CivilDate(leave.StartDatetime, s.loc), timeutil.CivilDate(leave.EndDatetime, s.loc)
			if _, err := tx.AdvanceNotice.MarkTypeUsedBetween(ctx, leave.UserID, model.NoticeTypeLeave, from, to); err != nil {
				return err
			}
			leave.CalendarEventUID = CalendarEventUID(leave.ID)
			if err := tx.Leave.SetCalendarEventUID(ctx, leave.ID, leave.CalendarEventUID); err != nil {
				return err
			}
		}
		return tx.AuditLog.Create(ctx, &model.AuditLog{
			ActorID:    approverID,
			Action:     action,
			TargetType: "leave_request",
			TargetID:   leave.ID,
			Changes:    model.JSONMap{"status": status, "notes": req.Notes},
		})
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrVersionConflict
		}
		s.logger.Error("审批请假申请失败", zap.String("leave_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("请假申请已审批",
		zap.String("leave_id", id),
		zap.String("status", status),
		zap.String("by", approverID),
	)
	s.notifyReview(ctx, leave)

	resp := toLeaveResponse(leave, s.loc)
	return &resp, nil
}

func (s *leaveService) notifyReview(ctx context.Context, leave *model.LeaveRequest) {
	if leave.User == nil || leave.User.SlackUserID == "" {
		return
	}
	result := "已通过"
	if leave.Status == model.RequestStatusRejected {
		result = "未通过"
	}
	msg := fmt.Sprintf("您 %s 至 %s 的请假申请%s。%s",
		leave.StartDatetime.In(s.loc).Format("2006-01-02 15:04"),
		leave.EndDatetime.In(s.loc).Format("2006-01-02 15:04"),
		result, leave.ReviewNotes)
	if err := s.notifier.NotifyUser(ctx, leave.User.SlackUserID, msg); err != nil {
		s.logger.Warn("推送请假审批结果失败", zap.String("leave_id", leave.ID), zap.Error(err))
	}
}

// ────────────────────── Stats ──────────────────────

func (s *leaveService) Stats(ctx context.Context, userID, yearMonth string) (*dto.LeaveStats, error) {
	first, last, err := timeutil.ParseYearMonth(yearMonth)
	if err != nil {
		return nil, ErrInvalidYearMonth
	}
	from, _ := timeutil.DayBounds(first, s.loc)
	_, to := timeutil.DayBounds(last, s.loc)

	list, err := s.repo.Leave.List(ctx, repository.RequestFilter{UserID: userID, From: &from, To: &to})
	if err != nil {
		return nil, err
	}

	st := &dto.LeaveStats{YearMonth: yearMonth, Total: len(list), ByType: map[string]int{}}
	for _, l := range list {
		switch l.Status {
		case model.RequestStatusApproved:
			st.Approved++
		case model.RequestStatusPending:
			st.Pending++
		case model.RequestStatusRejected:
			st.Rejected++
		}
		st.ByType[l.Type]++
	}
	return st, nil
}

// ── 转换 ──

func toRequestFilter(q *dto.RequestListQuery) (repository.RequestFilter, error) {
	filter := repository.RequestFilter{UserID: q.UserID, Status: q.Status}
	if q.From != "" {
		from, err := timeutil.ParseDate(q.From)
		if err != nil {
			return filter, ErrInvalidDate
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := timeutil.ParseDate(q.To)
		if err != nil {
			return filter, ErrInvalidDate
		}
		filter.To = &to
	}
	return filter, nil
}

func toReviewInfo(r model.Review) dto.ReviewInfo {
	info := dto.ReviewInfo{Status: r.Status, ReviewNotes: r.ReviewNotes}
	if r.ApproverID != nil {
		info.ApproverID = *r.ApproverID
	}
	if r.ReviewedAt != nil {
		info.ReviewedAt = r.ReviewedAt.UTC().Format(time.RFC3339)
	}
	return info
}

func toLeaveResponse(l *model.LeaveRequest, loc *time.Location) dto.LeaveResponse {
	resp := dto.LeaveResponse{
		ID:               l.ID,
		UserID:           l.UserID,
		StartDatetime:    l.StartDatetime.In(loc).Format(time.RFC3339),
		EndDatetime:      l.EndDatetime.In(loc).Format(time.RFC3339),
		Type:             l.Type,
		Reason:           l.Reason,
		HasAdvanceNotice: l.HasAdvanceNotice,
		AttachmentKeys:   []string(l.AttachmentKeys),
		Review:           toReviewInfo(l.Review),
		Version:          l.Version,
		CreatedAt:        l.CreatedAt.UTC().Format(time.RFC3339),
	}
	if resp.AttachmentKeys == nil {
		resp.AttachmentKeys = []string{}
	}
	if l.User != nil {
		resp.UserName = l.User.Name
	}
	return resp
}
