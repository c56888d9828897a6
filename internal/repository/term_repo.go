package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"timeclock/internal/model"
	pkgerrors "timeclock/pkg/errors"
)

// TermRepository 实习期数据访问接口
type TermRepository interface {
	Create(ctx context.Context, term *model.InternshipTerm) error
	GetByID(ctx context.Context, id string) (*model.InternshipTerm, error)
	Update(ctx context.Context, term *model.InternshipTerm) error
	ListByUser(ctx context.Context, userID string) ([]model.InternshipTerm, error)
	// ListConfirmedCovering 返回覆盖 date 的已确认实习期，按 start_date、created_at 倒序
	ListConfirmedCovering(ctx context.Context, userID string, date time.Time) ([]model.InternshipTerm, error)
}

type termRepo struct {
	db *gorm.DB
}

// NewTermRepo 创建 TermRepository 实例
func NewTermRepo(db *gorm.DB) TermRepository {
	return &termRepo{db: db}
}

func (r *termRepo) Create(ctx context.Context, term *model.InternshipTerm) error {
	return r.db.WithContext(ctx).Create(term).Error
}

func (r *termRepo) GetByID(ctx context.Context, id string) (*model.InternshipTerm, error) {
	var term model.InternshipTerm
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&term).Error; err != nil {
		return nil, err
	}
	return &term, nil
}

// Update 乐观锁更新
func (r *termRepo) Update(ctx context.Context, term *model.InternshipTerm) error {
	oldVersion := term.Version
	result := r.db.WithContext(ctx).
		Model(&model.InternshipTerm{}).
		Where("id = ? AND version = ?", term.ID, oldVersion).
		Updates(map[string]interface{}{
			"start_date":    term.StartDate,
			"end_date":      term.EndDate,
			"status":        term.Status,
			"base_schedule": term.BaseSchedule,
			"updated_by":    term.UpdatedBy,
			"updated_at":    time.Now().UTC(),
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	term.Version = oldVersion + 1
	return nil
}

func (r *termRepo) ListByUser(ctx context.Context, userID string) ([]model.InternshipTerm, error) {
	var terms []model.InternshipTerm
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Find(&terms).Error
	return terms, err
}

func (r *termRepo) ListConfirmedCovering(ctx context.Context, userID string, date time.Time) ([]model.InternshipTerm, error) {
	var terms []model.InternshipTerm
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			userID, model.TermStatusConfirmed, date, date).
		Order("start_date DESC").
		Order("created_at DESC").
		Find(&terms).Error
	return terms, err
}
