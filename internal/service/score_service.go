package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"timeclock/internal/dto"
	"timeclock/internal/model"
	"timeclock/internal/repository"
	"timeclock/pkg/keylock"
	"timeclock/pkg/notify"
	"timeclock/pkg/timeutil"
)

// ── 积分模块业务错误 ──

var (
	ErrScoreNotFound = errors.New("积分记录不存在")
	ErrNoScores      = errors.New("该月份暂无积分记录")
)

// ScoreService 月度积分业务接口
type ScoreService interface {
	// CalculateMonthlyScore 全量重算：删除全部明细（含手动调整）后按规则重新生成
	CalculateMonthlyScore(ctx context.Context, userID, yearMonth string) (*dto.ScoreResponse, error)
	// AdjustScore 在当前积分之上追加一条手动调整明细
	AdjustScore(ctx context.Context, req *dto.AdjustScoreRequest, adjustedBy string) (*dto.ScoreResponse, error)
	// GetMonthlyScore 读取月度积分；不存在或仍在计算中时触发一次全量计算
	GetMonthlyScore(ctx context.Context, userID, yearMonth string) (*dto.ScoreResponse, error)
	GetAllScoresForMonth(ctx context.Context, yearMonth string) ([]dto.ScoreResponse, error)
	RecalculateMonth(ctx context.Context, yearMonth string) (*dto.RecalculateResponse, error)
	// BroadcastRanking 将月度排名推送到管理频道
	BroadcastRanking(ctx context.Context, yearMonth string) error
}

type scoreService struct {
	repo     *repository.Repository
	config   SystemConfigService
	notifier notify.Notifier
	locks    *keylock.KeyedMutex
	logger   *zap.Logger
}

// NewScoreService 创建 ScoreService 实例
func NewScoreService(
	repo *repository.Repository,
	config SystemConfigService,
	notifier notify.Notifier,
	logger *zap.Logger,
) ScoreService {
	return &scoreService{
		repo:     repo,
		config:   config,
		notifier: notifier,
		locks:    keylock.New(),
		logger:   logger,
	}
}

// ────────────────────── CalculateMonthlyScore ──────────────────────

func (s *scoreService) CalculateMonthlyScore(ctx context.Context, userID, yearMonth string) (*dto.ScoreResponse, error) {
	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	record, err := s.calculate(ctx, userID, yearMonth)
	if err != nil {
		return nil, err
	}
	resp := toScoreResponse(record, true)
	return &resp, nil
}

func (s *scoreService) calculate(ctx context.Context, userID, yearMonth string) (*model.ScoreRecord, error) {
	first, last, err := timeutil.ParseYearMonth(yearMonth)
	if err != nil {
		return nil, ErrInvalidYearMonth
	}

	unlock := s.locks.Lock(userID + "|" + yearMonth)
	defer unlock()

	rules, err := s.config.LoadScoringRules(ctx)
	if err != nil {
		s.logger.Error("加载积分规则失败", zap.Error(err))
		return nil, err
	}

	var record *model.ScoreRecord
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		rec, err := tx.Score.GetOrCreate(ctx, userID, yearMonth)
		if err != nil {
			return err
		}
		if err := tx.Score.DeleteDetails(ctx, rec.ID); err != nil {
			return err
		}

		summaries, err := tx.DaySummary.ListByUserBetween(ctx, userID, first, last)
		if err != nil {
			return err
		}
		retros, err := tx.RetroClock.ListByUserBetween(ctx, userID, model.RequestStatusApproved, first, last)
		if err != nil {
			return err
		}

		details := ComputeScoreDetails(summaries, len(retros), rules)
		for i := range details {
			details[i].ScoreRecordID = rec.ID
		}
		if err := tx.Score.CreateDetails(ctx, details); err != nil {
			return err
		}

		totals := SummarizeDetails(details)
		rec.TotalDeduction = totals.TotalDeduction
		rec.BonusPoints = totals.BonusPoints
		rec.FinalScore = totals.FinalScore
		rec.Status = model.ScoreStatusFinal
		if err := tx.Score.UpdateTotals(ctx, rec); err != nil {
			return err
		}
		rec.Details = details
		record = rec
		return nil
	})
	if err != nil {
		s.logger.Error("计算月度积分失败",
			zap.String("user_id", userID),
			zap.String("year_month", yearMonth),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("月度积分已计算",
		zap.String("user_id", userID),
		zap.String("year_month", yearMonth),
		zap.String("final_score", record.FinalScore.String()),
		zap.Int("details", len(record.Details)),
	)
	return record, nil
}

// ────────────────────── AdjustScore ──────────────────────

func (s *scoreService) AdjustScore(ctx context.Context, req *dto.AdjustScoreRequest, adjustedBy string) (*dto.ScoreResponse, error) {
	record, err := s.getOrCalculate(ctx, req.UserID, req.YearMonth)
	if err != nil {
		return nil, err
	}

	points := decimal.NewFromFloat(req.Points)
	reason := model.ReasonBonus
	if points.IsNegative() {
		reason = s.negativeAdjustReason(ctx)
	}

	unlock := s.locks.Lock(req.UserID + "|" + req.YearMonth)
	defer unlock()

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		existing, err := tx.Score.ListDetails(ctx, record.ID)
		if err != nil {
			return err
		}
		detail := model.ScoreDetail{
			ScoreRecordID: record.ID,
			Seq:           len(existing) + 1,
			ReasonType:    reason,
			PointsDelta:   points,
			Notes:         "手动调整：" + req.Reason,
			IsManual:      true,
			CreatedBy:     &adjustedBy,
		}
		if err := tx.Score.CreateDetails(ctx, []model.ScoreDetail{detail}); err != nil {
			return err
		}

		all := append(existing, detail)
		totals := SummarizeDetails(all)
		record.TotalDeduction = totals.TotalDeduction
		record.BonusPoints = totals.BonusPoints
		record.FinalScore = totals.FinalScore
		record.Status = model.ScoreStatusFinal
		if err := tx.Score.UpdateTotals(ctx, record); err != nil {
			return err
		}
		record.Details = all

		return tx.AuditLog.Create(ctx, &model.AuditLog{
			ActorID:    adjustedBy,
			Action:     model.AuditAdjustScore,
			TargetType: "score_record",
			TargetID:   record.ID,
			Changes: model.JSONMap{
				"user_id":     req.UserID,
				"year_month":  req.YearMonth,
				"points":      points.String(),
				"reason":      req.Reason,
				"reason_type": reason,
				"final_score": record.FinalScore.String(),
			},
		})
	})
	if err != nil {
		s.logger.Error("手动调整积分失败", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("积分已手动调整",
		zap.String("user_id", req.UserID),
		zap.String("year_month", req.YearMonth),
		zap.String("points", points.String()),
		zap.String("by", adjustedBy),
	)
	resp := toScoreResponse(record, true)
	return &resp, nil
}

// negativeAdjustReason 负分手动调整的明细类型，配置缺失时按 MISCONDUCT
func (s *scoreService) negativeAdjustReason(ctx context.Context) string {
	reason, err := s.config.GetString(ctx, KeyManualAdjustNegativeReason)
	if err != nil || reason == "" {
		return model.ReasonMisconduct
	}
	return reason
}

// ────────────────────── 查询 ──────────────────────

func (s *scoreService) getOrCalculate(ctx context.Context, userID, yearMonth string) (*model.ScoreRecord, error) {
	if _, _, err := timeutil.ParseYearMonth(yearMonth); err != nil {
		return nil, ErrInvalidYearMonth
	}
	record, err := s.repo.Score.GetByUserMonth(ctx, userID, yearMonth)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if record == nil || record.Status == model.ScoreStatusCalculating {
		if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		return s.calculate(ctx, userID, yearMonth)
	}

	details, err := s.repo.Score.ListDetails(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	record.Details = details
	return record, nil
}

func (s *scoreService) GetMonthlyScore(ctx context.Context, userID, yearMonth string) (*dto.ScoreResponse, error) {
	record, err := s.getOrCalculate(ctx, userID, yearMonth)
	if err != nil {
		return nil, err
	}
	resp := toScoreResponse(record, true)
	return &resp, nil
}

func (s *scoreService) GetAllScoresForMonth(ctx context.Context, yearMonth string) ([]dto.ScoreResponse, error) {
	if _, _, err := timeutil.ParseYearMonth(yearMonth); err != nil {
		return nil, ErrInvalidYearMonth
	}
	records, err := s.repo.Score.ListByMonth(ctx, yearMonth)
	if err != nil {
		s.logger.Error("查询月度积分排名失败", zap.String("year_month", yearMonth), zap.Error(err))
		return nil, err
	}
	out := make([]dto.ScoreResponse, 0, len(records))
	for i := range records {
		out = append(out, toScoreResponse(&records[i], false))
	}
	return out, nil
}

// ────────────────────── 批量 ──────────────────────

func (s *scoreService) RecalculateMonth(ctx context.Context, yearMonth string) (*dto.RecalculateResponse, error) {
	if _, _, err := timeutil.ParseYearMonth(yearMonth); err != nil {
		return nil, ErrInvalidYearMonth
	}
	interns, err := s.repo.User.ListActiveInterns(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.RecalculateResponse{YearMonth: yearMonth}
	for _, u := range interns {
		if err := ctx.Err(); err != nil {
			return resp, err
		}
		if _, err := s.calculate(ctx, u.ID, yearMonth); err != nil {
			resp.Failed = append(resp.Failed, u.Code)
			continue
		}
		resp.Succeeded++
	}

	s.logger.Info("月度积分批量重算完成",
		zap.String("year_month", yearMonth),
		zap.Int("succeeded", resp.Succeeded),
		zap.Int("failed", len(resp.Failed)),
	)
	return resp, nil
}

func (s *scoreService) BroadcastRanking(ctx context.Context, yearMonth string) error {
	scores, err := s.GetAllScoresForMonth(ctx, yearMonth)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		return ErrNoScores
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s 月度积分排名\n", yearMonth)
	for i, sc := range scores {
		name := sc.UserName
		if name == "" {
			name = sc.UserID
		}
		fmt.Fprintf(&b, "%d. %s  %s 分\n", i+1, name, sc.FinalScore)
	}
	return s.notifier.Broadcast(ctx, b.String())
}

// ── 转换 ──

func toScoreResponse(r *model.ScoreRecord, withDetails bool) dto.ScoreResponse {
	resp := dto.ScoreResponse{
		UserID:         r.UserID,
		YearMonth:      r.YearMonth,
		BaseScore:      r.BaseScore.String(),
		TotalDeduction: r.TotalDeduction.String(),
		BonusPoints:    r.BonusPoints.String(),
		FinalScore:     r.FinalScore.String(),
		Status:         r.Status,
	}
	if r.User != nil {
		resp.UserName = r.User.Name
	}
	if withDetails {
		resp.Details = make([]dto.ScoreDetailResponse, 0, len(r.Details))
		for _, d := range r.Details {
			item := dto.ScoreDetailResponse{
				ReasonType:       d.ReasonType,
				PointsDelta:      d.PointsDelta.String(),
				HasAdvanceNotice: d.HasAdvanceNotice,
				Notes:            d.Notes,
				IsManual:         d.IsManual,
			}
			if d.RelatedDate != nil {
				item.RelatedDate = timeutil.FormatDate(*d.RelatedDate)
			}
			resp.Details = append(resp.Details, item)
		}
	}
	return resp
}
