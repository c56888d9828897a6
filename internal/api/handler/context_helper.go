package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"timeclock/internal/api/middleware"
	"timeclock/internal/model"
	"timeclock/internal/service"
	"timeclock/pkg/response"
	"timeclock/pkg/validation"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.CtxUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.CtxRole)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// tokenMeta 当前 Access Token 的 jti 与过期时间，登出时写入黑名单
func tokenMeta(c *gin.Context) (string, time.Time) {
	return c.GetString(middleware.CtxTokenJTI), c.GetTime(middleware.CtxTokenExp)
}

// resolveTargetUser 解析查询目标用户
// 管理员可通过 user_id 查询任意实习生；实习生只能查自己，传入他人 ID 返回 403
func resolveTargetUser(c *gin.Context, requested string) (string, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return "", false
	}
	if requested == "" || requested == userID {
		return userID, true
	}
	if c.GetString(middleware.CtxRole) != model.RoleAdmin {
		response.Forbidden(c, 10003, "无权限访问其他用户的数据")
		return "", false
	}
	return requested, true
}

// bindFailed 统一处理参数绑定错误
func bindFailed(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", validation.FormatBindingError(err))
}

// handleCommonError 各模块共用的业务错误映射，未命中时返回 500
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 10007, service.ErrInvalidDate.Error())
	case errors.Is(err, service.ErrInvalidYearMonth):
		response.BadRequest(c, 10008, service.ErrInvalidYearMonth.Error())
	case errors.Is(err, service.ErrVersionConflict):
		response.Conflict(c, 10006, service.ErrVersionConflict.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "用户不存在")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
