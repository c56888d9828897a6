package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"timeclock/internal/dto"
	"timeclock/internal/repository"
	"timeclock/pkg/timeutil"
)

// AuditService 审计日志查询（写入由各业务模块在事务内完成）
type AuditService interface {
	List(ctx context.Context, req *dto.AuditLogListRequest) ([]dto.AuditLogResponse, int64, error)
}

type auditService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewAuditService 创建 AuditService 实例
func NewAuditService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) AuditService {
	return &auditService{repo: repo, loc: loc, logger: logger}
}

func (s *auditService) List(ctx context.Context, req *dto.AuditLogListRequest) ([]dto.AuditLogResponse, int64, error) {
	filter := repository.AuditLogFilter{
		ActorID:    req.ActorID,
		Action:     req.Action,
		TargetType: req.TargetType,
	}
	if req.From != "" {
		d, err := timeutil.ParseDate(req.From)
		if err != nil {
			return nil, 0, ErrInvalidDate
		}
		start, _ := timeutil.DayBounds(d, s.loc)
		filter.From = &start
	}
	if req.To != "" {
		d, err := timeutil.ParseDate(req.To)
		if err != nil {
			return nil, 0, ErrInvalidDate
		}
		_, end := timeutil.DayBounds(d, s.loc)
		filter.To = &end
	}

	logs, total, err := s.repo.AuditLog.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询审计日志失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		result = append(result, dto.AuditLogResponse{
			ID:         l.ID,
			ActorID:    l.ActorID,
			Action:     l.Action,
			TargetType: l.TargetType,
			TargetID:   l.TargetID,
			Changes:    l.Changes,
			CreatedAt:  l.CreatedAt.In(s.loc).Format(time.RFC3339),
		})
	}
	return result, total, nil
}
