package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"timeclock/internal/model"
)

// ScoreTotals 由明细汇总出的积分
type ScoreTotals struct {
	TotalDeduction decimal.Decimal
	BonusPoints    decimal.Decimal
	FinalScore     decimal.Decimal
}

// ComputeScoreDetails 由当月日汇总与已批准补打卡次数生成积分明细（不含手动调整）
// 明细顺序：迟到（有告知）→ 迟到（无告知）→ 早退 → 补打卡 → 全勤奖励
func ComputeScoreDetails(summaries []model.DaySummary, approvedRetroCount int, rules ScoringRules) []model.ScoreDetail {
	days := make([]model.DaySummary, len(summaries))
	copy(days, summaries)
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	var details []model.ScoreDetail
	add := func(reason string, date *time.Time, points decimal.Decimal, notice bool, notes string) {
		details = append(details, model.ScoreDetail{
			Seq:              len(details) + 1,
			ReasonType:       reason,
			RelatedDate:      date,
			PointsDelta:      points,
			HasAdvanceNotice: notice,
			Notes:            notes,
		})
	}

	// ── 迟到：有预先告知 ──
	occurrence := 0
	for i := range days {
		d := &days[i]
		if !d.IsLate || !d.HasAdvanceNotice {
			continue
		}
		var points decimal.Decimal
		if occurrence < rules.AdvanceNoticeLateLimit {
			if d.LateMinutes > 30 {
				points = tier(rules.LatePointsWithNotice, TierOver30, decimal.NewFromInt(-1))
			} else {
				points = tier(rules.LatePointsWithNotice, TierUpTo30, decimal.Zero)
			}
		} else {
			points = rules.LatePointsOverLimit
		}
		occurrence++
		if points.IsNegative() {
			add(model.ReasonLate, datePtr(d.Date), points, true,
				fmt.Sprintf("迟到 %d 分钟（已预先告知，本月第 %d 次）", d.LateMinutes, occurrence))
		}
	}

	// ── 迟到：未预先告知 ──
	for i := range days {
		d := &days[i]
		if !d.IsLate || d.HasAdvanceNotice {
			continue
		}
		var points decimal.Decimal
		switch {
		case d.LateMinutes <= 30:
			points = tier(rules.LatePointsNoNotice, TierUpTo30, decimal.NewFromInt(-1))
		case d.LateMinutes <= 60:
			points = tier(rules.LatePointsNoNotice, Tier30To60, decimal.NewFromInt(-2))
		default:
			points = tier(rules.LatePointsNoNotice, TierOver60, decimal.NewFromInt(-3))
		}
		add(model.ReasonLate, datePtr(d.Date), points, false,
			fmt.Sprintf("迟到 %d 分钟（未预先告知）", d.LateMinutes))
	}

	// ── 早退 ──
	earlyCount := 0
	for i := range days {
		d := &days[i]
		if !d.IsEarlyLeave {
			continue
		}
		points, label := rules.EarlyLeaveRepeat, "再次早退"
		if earlyCount == 0 {
			points, label = rules.EarlyLeaveFirstTime, "首次早退"
		}
		earlyCount++
		add(model.ReasonEarlyLeave, datePtr(d.Date), points, false,
			fmt.Sprintf("早退 %d 分钟（%s）", d.EarlyLeaveMinutes, label))
	}

	// ── 补打卡 ──
	if points, bracket, ok := retroPenalty(approvedRetroCount, rules); ok {
		add(model.ReasonRetro, nil, points, false,
			fmt.Sprintf("本月补打卡 %d 次（%s 次档）", approvedRetroCount, bracket))
	}

	// ── 全勤奖励 ──
	if len(days) > 0 && !hasAttendanceIssue(days) {
		add(model.ReasonBonus, nil, rules.PerfectAttendanceBonus, false, "全勤奖励")
	}

	return details
}

// retroPenalty 补打卡扣分：1-2 次仅在配置为负数时扣分；3 次起按 (次数-2) 倍数扣分
func retroPenalty(count int, rules ScoringRules) (decimal.Decimal, string, bool) {
	switch {
	case count <= 0:
		return decimal.Zero, "", false
	case count <= 2:
		points := tier(rules.RetroClockLimit, TierRetro1_2, decimal.Zero)
		return points, TierRetro1_2, points.IsNegative()
	case count <= 4:
		rate := tier(rules.RetroClockLimit, TierRetro3_4, decimal.NewFromInt(-1))
		return rate.Mul(decimal.NewFromInt(int64(count - 2))), TierRetro3_4, true
	default:
		rate := tier(rules.RetroClockLimit, TierRetro5Up, decimal.NewFromInt(-2))
		return rate.Mul(decimal.NewFromInt(int64(count - 2))), TierRetro5Up, true
	}
}

// hasAttendanceIssue 是否存在迟到、早退或排班日缺勤
// 非排班日的打卡不影响全勤
func hasAttendanceIssue(days []model.DaySummary) bool {
	for _, d := range days {
		if d.IsLate || d.IsEarlyLeave || d.DayKind == model.DayKindWorkdayAbsent {
			return true
		}
	}
	return false
}

// SummarizeDetails 最终得分 = 100 − Σ|负分| + Σ正分，不做上下限截断
func SummarizeDetails(details []model.ScoreDetail) ScoreTotals {
	deduction, bonus := decimal.Zero, decimal.Zero
	for _, d := range details {
		switch {
		case d.PointsDelta.IsNegative():
			deduction = deduction.Add(d.PointsDelta.Abs())
		case d.PointsDelta.IsPositive():
			bonus = bonus.Add(d.PointsDelta)
		}
	}
	return ScoreTotals{
		TotalDeduction: deduction,
		BonusPoints:    bonus,
		FinalScore:     model.BaseScore.Sub(deduction).Add(bonus),
	}
}

func datePtr(t time.Time) *time.Time {
	return &t
}
