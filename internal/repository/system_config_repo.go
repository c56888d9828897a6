package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"timeclock/internal/model"
)

// SystemConfigRepository 系统配置数据访问接口
type SystemConfigRepository interface {
	Get(ctx context.Context, key string) (*model.SystemConfigEntry, error)
	List(ctx context.Context) ([]model.SystemConfigEntry, error)
	ListByCategory(ctx context.Context, category string) ([]model.SystemConfigEntry, error)
	// CreateIfMissing 键不存在时插入，返回是否新建；已存在的值保持不变
	CreateIfMissing(ctx context.Context, entry *model.SystemConfigEntry) (bool, error)
	// UpdateValue 更新已有键的值，键不存在时返回 gorm.ErrRecordNotFound
	UpdateValue(ctx context.Context, key, value string, updatedBy *string) error
}

type systemConfigRepo struct {
	db *gorm.DB
}

// NewSystemConfigRepo 创建 SystemConfigRepository 实例
func NewSystemConfigRepo(db *gorm.DB) SystemConfigRepository {
	return &systemConfigRepo{db: db}
}

func (r *systemConfigRepo) Get(ctx context.Context, key string) (*model.SystemConfigEntry, error) {
	var entry model.SystemConfigEntry
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *systemConfigRepo) List(ctx context.Context) ([]model.SystemConfigEntry, error) {
	var list []model.SystemConfigEntry
	err := r.db.WithContext(ctx).Order("category ASC").Order("key ASC").Find(&list).Error
	return list, err
}

func (r *systemConfigRepo) ListByCategory(ctx context.Context, category string) ([]model.SystemConfigEntry, error) {
	var list []model.SystemConfigEntry
	err := r.db.WithContext(ctx).Where("category = ?", category).Order("key ASC").Find(&list).Error
	return list, err
}

func (r *systemConfigRepo) CreateIfMissing(ctx context.Context, entry *model.SystemConfigEntry) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *systemConfigRepo) UpdateValue(ctx context.Context, key, value string, updatedBy *string) error {
	result := r.db.WithContext(ctx).
		Model(&model.SystemConfigEntry{}).
		Where("key = ?", key).
		Updates(map[string]interface{}{
			"value":      value,
			"updated_by": updatedBy,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
