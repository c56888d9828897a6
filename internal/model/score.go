package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 积分记录状态
const (
	ScoreStatusCalculating = "CALCULATING"
	ScoreStatusFinal       = "FINAL"
)

// 积分明细原因
const (
	ReasonLate       = "LATE"
	ReasonEarlyLeave = "EARLY_LEAVE"
	ReasonRetro      = "RETRO"
	ReasonBonus      = "BONUS"
	ReasonMisconduct = "MISCONDUCT"
)

// BaseScore 每月基础分
var BaseScore = decimal.NewFromInt(100)

// ScoreRecord 月度积分表 — 对应 score_records，(user_id, year_month) 唯一
type ScoreRecord struct {
	ID             string          `gorm:"type:uuid;primaryKey"                                        json:"id"`
	UserID         string          `gorm:"type:uuid;not null;uniqueIndex:uk_score_user_month,priority:1" json:"user_id"`
	YearMonth      string          `gorm:"type:varchar(7);not null;uniqueIndex:uk_score_user_month,priority:2" json:"year_month"`
	BaseScore      decimal.Decimal `gorm:"type:numeric(8,2);not null;default:100"                      json:"base_score"`
	TotalDeduction decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"                        json:"total_deduction"`
	BonusPoints    decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"                        json:"bonus_points"`
	FinalScore     decimal.Decimal `gorm:"type:numeric(8,2);not null;default:100"                      json:"final_score"`
	Status         string          `gorm:"type:varchar(20);not null;default:'CALCULATING'"            json:"status"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"                          json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"                          json:"updated_at"`

	Details []ScoreDetail `gorm:"foreignKey:ScoreRecordID" json:"details,omitempty"`
	User    *User         `gorm:"foreignKey:UserID"        json:"user,omitempty"`
}

// TableName 指定表名
func (ScoreRecord) TableName() string { return "score_records" }

func (r *ScoreRecord) BeforeCreate(*gorm.DB) error {
	newID(&r.ID)
	return nil
}

// ScoreDetail 积分明细表 — 对应 score_details
// 全量重算时整体替换；手动调整为追加行（is_manual=true）
type ScoreDetail struct {
	ID               string          `gorm:"type:uuid;primaryKey"              json:"id"`
	ScoreRecordID    string          `gorm:"type:uuid;not null;index"          json:"score_record_id"`
	Seq              int             `gorm:"not null;default:0"                json:"seq"`
	ReasonType       string          `gorm:"type:varchar(20);not null"         json:"reason_type"`
	RelatedDate      *time.Time      `gorm:"type:date"                         json:"related_date,omitempty"`
	PointsDelta      decimal.Decimal `gorm:"type:numeric(8,2);not null"        json:"points_delta"`
	HasAdvanceNotice bool            `gorm:"not null;default:false"            json:"has_advance_notice"`
	Notes            string          `gorm:"type:text"                         json:"notes"`
	IsManual         bool            `gorm:"not null;default:false"            json:"is_manual"`
	CreatedBy        *string         `gorm:"type:uuid"                         json:"created_by,omitempty"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (ScoreDetail) TableName() string { return "score_details" }

func (d *ScoreDetail) BeforeCreate(*gorm.DB) error {
	newID(&d.ID)
	return nil
}
