package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"timeclock/internal/model"
)

// DaySummaryRepository 日汇总数据访问接口
type DaySummaryRepository interface {
	// Upsert 按 (user_id, date) 插入或整行覆盖派生字段
	Upsert(ctx context.Context, summary *model.DaySummary) error
	GetByUserDate(ctx context.Context, userID string, date time.Time) (*model.DaySummary, error)
	ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]model.DaySummary, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]model.DaySummary, error)
}

type daySummaryRepo struct {
	db *gorm.DB
}

// NewDaySummaryRepo 创建 DaySummaryRepository 实例
func NewDaySummaryRepo(db *gorm.DB) DaySummaryRepository {
	return &daySummaryRepo{db: db}
}

// daySummaryDerivedColumns 重算时覆盖的全部派生列
var daySummaryDerivedColumns = []string{
	"day_kind",
	"work_onsite_seconds",
	"work_remote_seconds",
	"total_work_seconds",
	"scheduled_seconds",
	"is_late",
	"late_minutes",
	"is_early_leave",
	"early_leave_minutes",
	"is_absent",
	"lunch_break_seconds",
	"lunch_overlap_seconds",
	"break_offsite_seconds",
	"has_advance_notice",
	"status_notes",
	"updated_at",
}

func (r *daySummaryRepo) Upsert(ctx context.Context, summary *model.DaySummary) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns(daySummaryDerivedColumns),
		}).
		Create(summary).Error
}

func (r *daySummaryRepo) GetByUserDate(ctx context.Context, userID string, date time.Time) (*model.DaySummary, error) {
	var s model.DaySummary
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *daySummaryRepo) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]model.DaySummary, error) {
	var list []model.DaySummary
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").
		Find(&list).Error
	return list, err
}

func (r *daySummaryRepo) ListBetween(ctx context.Context, from, to time.Time) ([]model.DaySummary, error) {
	var list []model.DaySummary
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, to).
		Order("date ASC").
		Order("user_id ASC").
		Find(&list).Error
	return list, err
}
