package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"timeclock/internal/model"
)

// AttendanceEventRepository 打卡事件数据访问接口（只追加）
type AttendanceEventRepository interface {
	Create(ctx context.Context, event *model.AttendanceEvent) error
	// ListByUserBetween 返回 [from, to] 内的事件，按 timestamp、seq 升序
	ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]model.AttendanceEvent, error)
}

type attendanceEventRepo struct {
	db *gorm.DB
}

// NewAttendanceEventRepo 创建 AttendanceEventRepository 实例
func NewAttendanceEventRepo(db *gorm.DB) AttendanceEventRepository {
	return &attendanceEventRepo{db: db}
}

func (r *attendanceEventRepo) Create(ctx context.Context, event *model.AttendanceEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *attendanceEventRepo) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]model.AttendanceEvent, error) {
	var events []model.AttendanceEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND timestamp >= ? AND timestamp <= ?", userID, from.UTC(), to.UTC()).
		Order("timestamp ASC").
		Order("seq ASC").
		Find(&events).Error
	return events, err
}
