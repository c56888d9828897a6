package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Role     string `form:"role"      binding:"omitempty,oneof=admin intern"`
	IsActive *bool  `form:"is_active"`
	Keyword  string `form:"keyword"   binding:"omitempty,max=50"`
}

// CreateUserRequest 管理员创建用户请求
// 管理员必须设置密码；实习生通过访问令牌登录，密码可省略
type CreateUserRequest struct {
	Code        string `json:"code"          binding:"required,max=32"`
	Name        string `json:"name"          binding:"required,min=1,max=100"`
	Email       string `json:"email"         binding:"required,email"`
	Role        string `json:"role"          binding:"required,oneof=admin intern"`
	Password    string `json:"password"      binding:"omitempty,min=8,max=64"`
	SlackUserID string `json:"slack_user_id" binding:"omitempty,max=64"`
}

// UpdateUserRequest 更新用户信息请求
type UpdateUserRequest struct {
	Name        *string `json:"name"          binding:"omitempty,min=1,max=100"`
	Email       *string `json:"email"         binding:"omitempty,email"`
	SlackUserID *string `json:"slack_user_id" binding:"omitempty,max=64"`
	IsActive    *bool   `json:"is_active"`
}

// IssueAccessTokenResponse 签发实习生访问令牌响应（明文仅返回这一次）
type IssueAccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

// ImportUserError 导入失败行
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportUserResponse 批量导入结果
type ImportUserResponse struct {
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Errors  []ImportUserError `json:"errors,omitempty"`
}

// ResetPasswordRequest 管理员重置密码请求
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8,max=64"`
}
