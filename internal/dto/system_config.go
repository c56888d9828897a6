package dto

import "encoding/json"

// ── 系统配置模块 DTO ──

// UpdateSystemConfigRequest 更新单个配置项请求，value 为任意 JSON
type UpdateSystemConfigRequest struct {
	Value json.RawMessage `json:"value" binding:"required"`
}

// SystemConfigResponse 配置项响应
type SystemConfigResponse struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	UpdatedBy   string          `json:"updated_by,omitempty"`
	UpdatedAt   string          `json:"updated_at"`
}
