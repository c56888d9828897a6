package service

import (
	"time"

	"github.com/shopspring/decimal"

	"timeclock/internal/model"
)

// ── 系统配置键 ──

const (
	KeyWorkStartTime              = "work_start_time"
	KeyWorkEndTime                = "work_end_time"
	KeyLunchStartTime             = "lunch_start_time"
	KeyLunchEndTime               = "lunch_end_time"
	KeyLateGraceMinutes           = "late_grace_minutes"
	KeyAdvanceNoticeMinutes       = "advance_notice_minutes"
	KeyAdvanceNoticeLateLimit     = "advance_notice_late_limit"
	KeyLatePointsWithNotice       = "late_points_with_notice"
	KeyLatePointsNoNotice         = "late_points_no_notice"
	KeyLatePointsOverLimit        = "late_points_over_limit"
	KeyEarlyLeaveFirstTime        = "early_leave_first_time"
	KeyEarlyLeaveRepeat           = "early_leave_repeat"
	KeyRetroClockLimit            = "retro_clock_limit"
	KeyPerfectAttendanceBonus     = "perfect_attendance_bonus"
	KeyManualAdjustNegativeReason = "manual_adjust_negative_reason"
	KeyTokenExpiryDays            = "token_expiry_days"
)

// 扣分表档位键
const (
	TierUpTo30   = "<=30"
	TierOver30   = ">30"
	Tier30To60   = "30-60"
	TierOver60   = ">60"
	TierRetro1_2 = "1-2"
	TierRetro3_4 = "3-4"
	TierRetro5Up = ">=5"
)

// DisplayLunchBreakSeconds 日汇总中展示的午休时长（固定 1.5 小时）
// 实际扣除的午休重叠时长记录在 LunchOverlapSeconds
const DisplayLunchBreakSeconds int64 = 5400

type configDefault struct {
	key         string
	value       interface{}
	category    string
	description string
}

// configDefaults 启动时按“缺失才创建”写入的默认配置
var configDefaults = []configDefault{
	{KeyWorkStartTime, "08:30", model.ConfigCategorySchedule, "标准上班时间"},
	{KeyWorkEndTime, "18:00", model.ConfigCategorySchedule, "标准下班时间"},
	{KeyLunchStartTime, "12:00", model.ConfigCategorySchedule, "午休开始时间"},
	{KeyLunchEndTime, "13:30", model.ConfigCategorySchedule, "午休结束时间"},

	{KeyLateGraceMinutes, 5, model.ConfigCategoryRules, "迟到宽限时间（分钟）"},
	{KeyAdvanceNoticeMinutes, 30, model.ConfigCategoryRules, "预先告知时限（上班前 N 分钟）"},
	{KeyAdvanceNoticeLateLimit, 3, model.ConfigCategoryRules, "预先告知迟到免扣分上限（次/月）"},

	{KeyLatePointsWithNotice, map[string]float64{TierUpTo30: 0, TierOver30: -1}, model.ConfigCategoryScoring, "预先告知迟到扣分规则"},
	{KeyLatePointsNoNotice, map[string]float64{TierUpTo30: -1, Tier30To60: -2, TierOver60: -3}, model.ConfigCategoryScoring, "未预先告知迟到扣分规则"},
	{KeyLatePointsOverLimit, -0.5, model.ConfigCategoryScoring, "超出预先告知次数上限后每次迟到扣分"},
	{KeyEarlyLeaveFirstTime, -3, model.ConfigCategoryScoring, "第一次早退扣分"},
	{KeyEarlyLeaveRepeat, -5, model.ConfigCategoryScoring, "第二次起早退扣分"},
	{KeyRetroClockLimit, map[string]float64{TierRetro1_2: 0, TierRetro3_4: -1, TierRetro5Up: -2}, model.ConfigCategoryScoring, "补打卡扣分规则（次数:扣分）"},
	{KeyPerfectAttendanceBonus, 3, model.ConfigCategoryScoring, "全勤奖励加分"},
	{KeyManualAdjustNegativeReason, model.ReasonMisconduct, model.ConfigCategoryScoring, "手动扣分的明细类型（MISCONDUCT 或 BONUS）"},

	{KeyTokenExpiryDays, 30, model.ConfigCategorySecurity, "实习生访问令牌有效天数"},
}

// ── 规则快照 ──

// AttendanceRules 工时计算所需的规则快照，每次计算前读取一次
type AttendanceRules struct {
	Location         *time.Location
	LunchStart       model.ClockTime
	LunchEnd         model.ClockTime
	LateGraceMinutes int
}

// ScoringRules 月度积分所需的规则快照
type ScoringRules struct {
	AdvanceNoticeLateLimit int
	LatePointsWithNotice   map[string]decimal.Decimal
	LatePointsNoNotice     map[string]decimal.Decimal
	LatePointsOverLimit    decimal.Decimal
	EarlyLeaveFirstTime    decimal.Decimal
	EarlyLeaveRepeat       decimal.Decimal
	RetroClockLimit        map[string]decimal.Decimal
	PerfectAttendanceBonus decimal.Decimal
}

// DefaultScoringRules 与默认配置一致的积分规则
func DefaultScoringRules() ScoringRules {
	return ScoringRules{
		AdvanceNoticeLateLimit: 3,
		LatePointsWithNotice: map[string]decimal.Decimal{
			TierUpTo30: decimal.Zero,
			TierOver30: decimal.NewFromInt(-1),
		},
		LatePointsNoNotice: map[string]decimal.Decimal{
			TierUpTo30: decimal.NewFromInt(-1),
			Tier30To60: decimal.NewFromInt(-2),
			TierOver60: decimal.NewFromInt(-3),
		},
		LatePointsOverLimit: decimal.NewFromFloat(-0.5),
		EarlyLeaveFirstTime: decimal.NewFromInt(-3),
		EarlyLeaveRepeat:    decimal.NewFromInt(-5),
		RetroClockLimit: map[string]decimal.Decimal{
			TierRetro1_2: decimal.Zero,
			TierRetro3_4: decimal.NewFromInt(-1),
			TierRetro5Up: decimal.NewFromInt(-2),
		},
		PerfectAttendanceBonus: decimal.NewFromInt(3),
	}
}

// tier 取档位值；档位缺失时回退默认值，显式配置的 0 保留
func tier(table map[string]decimal.Decimal, key string, fallback decimal.Decimal) decimal.Decimal {
	if v, ok := table[key]; ok {
		return v
	}
	return fallback
}
