package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"timeclock/internal/model"
	pkgerrors "timeclock/pkg/errors"
)

// RetroClockRequestRepository 补打卡申请数据访问接口
type RetroClockRequestRepository interface {
	Create(ctx context.Context, req *model.RetroClockRequest) error
	GetByID(ctx context.Context, id string) (*model.RetroClockRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]model.RetroClockRequest, error)
	UpdateReview(ctx context.Context, req *model.RetroClockRequest) error
	// ListByUserBetween 按目标日期 [from, to] 查询，status 为空表示不过滤
	ListByUserBetween(ctx context.Context, userID, status string, from, to time.Time) ([]model.RetroClockRequest, error)
}

type retroClockRequestRepo struct {
	db *gorm.DB
}

// NewRetroClockRequestRepo 创建 RetroClockRequestRepository 实例
func NewRetroClockRequestRepo(db *gorm.DB) RetroClockRequestRepository {
	return &retroClockRequestRepo{db: db}
}

func (r *retroClockRequestRepo) Create(ctx context.Context, req *model.RetroClockRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *retroClockRequestRepo) GetByID(ctx context.Context, id string) (*model.RetroClockRequest, error) {
	var req model.RetroClockRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *retroClockRequestRepo) List(ctx context.Context, filter RequestFilter) ([]model.RetroClockRequest, error) {
	var list []model.RetroClockRequest
	db := r.db.WithContext(ctx).Preload("User")
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		db = db.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("date <= ?", *filter.To)
	}
	err := db.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *retroClockRequestRepo) UpdateReview(ctx context.Context, req *model.RetroClockRequest) error {
	oldVersion := req.Version
	result := r.db.WithContext(ctx).
		Model(&model.RetroClockRequest{}).
		Where("id = ? AND version = ? AND status = ?", req.ID, oldVersion, model.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":       req.Status,
			"approver_id":  req.ApproverID,
			"review_notes": req.ReviewNotes,
			"reviewed_at":  req.ReviewedAt,
			"event_id":     req.EventID,
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

func (r *retroClockRequestRepo) ListByUserBetween(ctx context.Context, userID, status string, from, to time.Time) ([]model.RetroClockRequest, error) {
	var list []model.RetroClockRequest
	db := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("date ASC").Find(&list).Error
	return list, err
}
