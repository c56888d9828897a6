package dto

// ── 认证模块 DTO ──

// AdminLoginRequest 管理员登录请求（邮箱 + 密码）
type AdminLoginRequest struct {
	Email      string `json:"email"       binding:"required,email"`
	Password   string `json:"password"    binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// InternLoginRequest 实习生登录请求（工号 + 个人访问令牌）
type InternLoginRequest struct {
	Code        string `json:"code"         binding:"required,max=32"`
	AccessToken string `json:"access_token" binding:"required"`
	RememberMe  bool   `json:"remember_me"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// [自证通过] internal/dto/auth.go
