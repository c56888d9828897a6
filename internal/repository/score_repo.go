package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"timeclock/internal/model"
)

// ScoreRepository 月度积分数据访问接口
type ScoreRepository interface {
	// GetOrCreate 取得 (user, yearMonth) 的积分记录，不存在时以 CALCULATING 状态创建
	GetOrCreate(ctx context.Context, userID, yearMonth string) (*model.ScoreRecord, error)
	GetByUserMonth(ctx context.Context, userID, yearMonth string) (*model.ScoreRecord, error)
	UpdateTotals(ctx context.Context, record *model.ScoreRecord) error
	DeleteDetails(ctx context.Context, recordID string) error
	CreateDetails(ctx context.Context, details []model.ScoreDetail) error
	ListDetails(ctx context.Context, recordID string) ([]model.ScoreDetail, error)
	ListByMonth(ctx context.Context, yearMonth string) ([]model.ScoreRecord, error)
}

type scoreRepo struct {
	db *gorm.DB
}

// NewScoreRepo 创建 ScoreRepository 实例
func NewScoreRepo(db *gorm.DB) ScoreRepository {
	return &scoreRepo{db: db}
}

func (r *scoreRepo) GetOrCreate(ctx context.Context, userID, yearMonth string) (*model.ScoreRecord, error) {
	record := &model.ScoreRecord{
		UserID:     userID,
		YearMonth:  yearMonth,
		BaseScore:  model.BaseScore,
		FinalScore: model.BaseScore,
		Status:     model.ScoreStatusCalculating,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "year_month"}},
			DoNothing: true,
		}).
		Create(record).Error
	if err != nil {
		return nil, err
	}
	return r.GetByUserMonth(ctx, userID, yearMonth)
}

func (r *scoreRepo) GetByUserMonth(ctx context.Context, userID, yearMonth string) (*model.ScoreRecord, error) {
	var record model.ScoreRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND year_month = ?", userID, yearMonth).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *scoreRepo) UpdateTotals(ctx context.Context, record *model.ScoreRecord) error {
	return r.db.WithContext(ctx).
		Model(&model.ScoreRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]interface{}{
			"total_deduction": record.TotalDeduction,
			"bonus_points":    record.BonusPoints,
			"final_score":     record.FinalScore,
			"status":          record.Status,
			"updated_at":      time.Now().UTC(),
		}).Error
}

func (r *scoreRepo) DeleteDetails(ctx context.Context, recordID string) error {
	return r.db.WithContext(ctx).
		Where("score_record_id = ?", recordID).
		Delete(&model.ScoreDetail{}).Error
}

func (r *scoreRepo) CreateDetails(ctx context.Context, details []model.ScoreDetail) error {
	if len(details) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&details).Error
}

func (r *scoreRepo) ListDetails(ctx context.Context, recordID string) ([]model.ScoreDetail, error) {
	var details []model.ScoreDetail
	err := r.db.WithContext(ctx).
		Where("score_record_id = ?", recordID).
		Order("seq ASC").
		Find(&details).Error
	return details, err
}

func (r *scoreRepo) ListByMonth(ctx context.Context, yearMonth string) ([]model.ScoreRecord, error) {
	var records []model.ScoreRecord
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("year_month = ?", yearMonth).
		Order("final_score DESC").
		Find(&records).Error
	return records, err
}
