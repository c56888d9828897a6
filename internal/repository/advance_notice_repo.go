package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"timeclock/internal/model"
)

// AdvanceNoticeRepository 预先告知数据访问接口
type AdvanceNoticeRepository interface {
	Create(ctx context.Context, notice *model.AdvanceNotice) error
	// FirstUnused 返回 (user, date) 最早创建的未使用告知，不存在时返回 gorm.ErrRecordNotFound
	FirstUnused(ctx context.Context, userID string, date time.Time) (*model.AdvanceNotice, error)
	// FirstUnusedOfTypeBetween 返回日期区间内最早的某类未使用告知
	FirstUnusedOfTypeBetween(ctx context.Context, userID, noticeType string, from, to time.Time) (*model.AdvanceNotice, error)
	// MarkUsed 仅当告知未被使用时置为已用，返回是否发生变更
	MarkUsed(ctx context.Context, id string) (bool, error)
	// MarkTypeUsedBetween 批量消费区间内某类未使用告知，返回变更行数
	MarkTypeUsedBetween(ctx context.Context, userID, noticeType string, from, to time.Time) (int64, error)
	ListByUser(ctx context.Context, userID string, isUsed *bool) ([]model.AdvanceNotice, error)
	ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]model.AdvanceNotice, error)
}

type advanceNoticeRepo struct {
	db *gorm.DB
}

// NewAdvanceNoticeRepo 创建 AdvanceNoticeRepository 实例
func NewAdvanceNoticeRepo(db *gorm.DB) AdvanceNoticeRepository {
	return &advanceNoticeRepo{db: db}
}

func (r *advanceNoticeRepo) Create(ctx context.Context, notice *model.AdvanceNotice) error {
	return r.db.WithContext(ctx).Create(notice).Error
}

func (r *advanceNoticeRepo) FirstUnused(ctx context.Context, userID string, date time.Time) (*model.AdvanceNotice, error) {
	var n model.AdvanceNotice
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND expected_date = ? AND is_used = ?", userID, date, false).
		Order("created_at ASC").
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *advanceNoticeRepo) FirstUnusedOfTypeBetween(ctx context.Context, userID, noticeType string, from, to time.Time) (*model.AdvanceNotice, error) {
	var n model.AdvanceNotice
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND notice_type = ? AND expected_date >= ? AND expected_date <= ? AND is_used = ?",
			userID, noticeType, from, to, false).
		Order("created_at ASC").
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *advanceNoticeRepo) MarkUsed(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.AdvanceNotice{}).
		Where("id = ? AND is_used = ?", id, false).
		Updates(map[string]interface{}{
			"is_used":    true,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *advanceNoticeRepo) MarkTypeUsedBetween(ctx context.Context, userID, noticeType string, from, to time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.AdvanceNotice{}).
		Where("user_id = ? AND notice_type = ? AND expected_date >= ? AND expected_date <= ? AND is_used = ?",
			userID, noticeType, from, to, false).
		Updates(map[string]interface{}{
			"is_used":    true,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

func (r *advanceNoticeRepo) ListByUser(ctx context.Context, userID string, isUsed *bool) ([]model.AdvanceNotice, error) {
	var list []model.AdvanceNotice
	db := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if isUsed != nil {
		db = db.Where("is_used = ?", *isUsed)
	}
	err := db.Order("expected_date DESC").Find(&list).Error
	return list, err
}

func (r *advanceNoticeRepo) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]model.AdvanceNotice, error) {
	var list []model.AdvanceNotice
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND expected_date >= ? AND expected_date <= ?", userID, from, to).
		Order("expected_date ASC").
		Find(&list).Error
	return list, err
}
