package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"timeclock/internal/model"
	pkgerrors "timeclock/pkg/errors"
)

// RequestFilter 请假 / 补打卡列表过滤条件
type RequestFilter struct {
	UserID string
	Status string
	From   *time.Time
	To     *time.Time
}

// LeaveRequestRepository 请假申请数据访问接口
type LeaveRequestRepository interface {
	Create(ctx context.Context, req *model.LeaveRequest) error
	GetByID(ctx context.Context, id string) (*model.LeaveRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]model.LeaveRequest, error)
	// UpdateReview 乐观锁更新审批字段，仅当记录仍处于 PENDING
	UpdateReview(ctx context.Context, req *model.LeaveRequest) error
	SetCalendarEventUID(ctx context.Context, id, uid string) error
	ListApprovedOverlapping(ctx context.Context, from, to time.Time) ([]model.LeaveRequest, error)
}

type leaveRequestRepo struct {
	db *gorm.DB
}

// NewLeaveRequestRepo 创建 LeaveRequestRepository 实例
func NewLeaveRequestRepo(db *gorm.DB) LeaveRequestRepository {
	return &leaveRequestRepo{db: db}
}

func (r *leaveRequestRepo) Create(ctx context.Context, req *model.LeaveRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *leaveRequestRepo) GetByID(ctx context.Context, id string) (*model.LeaveRequest, error) {
	var req model.LeaveRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *leaveRequestRepo) List(ctx context.Context, filter RequestFilter) ([]model.LeaveRequest, error) {
	var list []model.LeaveRequest
	db := r.db.WithContext(ctx).Preload("User")
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		db = db.Where("start_datetime >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		db = db.Where("start_datetime <= ?", filter.To.UTC())
	}
	err := db.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *leaveRequestRepo) UpdateReview(ctx context.Context, req *model.LeaveRequest) error {
	oldVersion := req.Version
	result := r.db.WithContext(ctx).
		Model(&model.LeaveRequest{}).
		Where("id = ? AND version = ? AND status = ?", req.ID, oldVersion, model.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":       req.Status,
			"approver_id":  req.ApproverID,
			"review_notes": req.ReviewNotes,
			"reviewed_at":  req.ReviewedAt,
			"updated_by":   req.UpdatedBy,
			"updated_at":   time.Now().UTC(),
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version = oldVersion + 1
	return nil
}

func (r *leaveRequestRepo) SetCalendarEventUID(ctx context.Context, id, uid string) error {
	return r.db.WithContext(ctx).
		Model(&model.LeaveRequest{}).
		Where("id = ?", id).
		Update("calendar_event_uid", uid).Error
}

func (r *leaveRequestRepo) ListApprovedOverlapping(ctx context.Context, from, to time.Time) ([]model.LeaveRequest, error) {
	var list []model.LeaveRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("status = ? AND start_datetime <= ? AND end_datetime >= ?",
			model.RequestStatusApproved, to.UTC(), from.UTC()).
		Order("start_datetime ASC").
		Find(&list).Error
	return list, err
}
