package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timeclock/config"
	"timeclock/internal/api/handler"
	"timeclock/internal/api/middleware"
	"timeclock/internal/model"
	"timeclock/pkg/jwt"
	"timeclock/pkg/validation"
)

// Guards 可选的 Redis 能力，Redis 不可用时传 nil 降级运行
type Guards struct {
	Revoked middleware.RevocationChecker
	Limiter middleware.RateLimiter
}

// 登录接口每个 IP 每分钟最多 10 次
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, guards Guards, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	validation.Register()

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	admin := middleware.RoleAuth(model.RoleAdmin)
	intern := middleware.RoleAuth(model.RoleIntern)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(guards.Limiter, loginRateLimit, loginRateWindow))
		{
			auth.POST("/login", h.Auth.AdminLogin)
			auth.POST("/intern-login", h.Auth.InternLogin)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, guards.Revoked))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 用户模块（管理员）
			users := authorized.Group("/users", admin)
			{
				users.GET("", h.User.ListUsers)
				users.POST("", h.User.CreateUser)
				users.POST("/import", h.User.ImportUsers)
				users.GET("/:id", h.User.GetUser)
				users.PUT("/:id", h.User.UpdateUser)
				users.POST("/:id/reset-password", h.User.ResetPassword)
				users.POST("/:id/access-token", h.User.IssueAccessToken)
			}

			// 实习期模块
			terms := authorized.Group("/terms")
			{
				terms.GET("", h.Term.ListTerms)
				terms.POST("", admin, h.Term.CreateTerm)
				terms.PUT("/:id", admin, h.Term.UpdateTerm)
				terms.POST("/:id/confirm", admin, h.Term.ConfirmTerm)
				terms.POST("/:id/cancel", admin, h.Term.CancelTerm)
			}

			// 考勤打卡模块
			attendance := authorized.Group("/attendance")
			{
				attendance.POST("/clock-in", intern, h.Attendance.ClockIn)
				attendance.POST("/clock-out", intern, h.Attendance.ClockOut)
				attendance.POST("/break-start", intern, h.Attendance.BreakStart)
				attendance.POST("/break-end", intern, h.Attendance.BreakEnd)
				attendance.GET("/today", intern, h.Attendance.GetTodayStatus)
				attendance.GET("/day", h.Attendance.GetDaySummary)
				attendance.GET("/month", h.Attendance.GetMonthSummary)
				attendance.POST("/recompute", admin, h.Attendance.RecomputeDay)
			}

			// 预先告知模块
			notices := authorized.Group("/advance-notices")
			{
				notices.POST("", intern, h.AdvanceNotice.Create)
				notices.GET("", intern, h.AdvanceNotice.ListMine)
				notices.GET("/stats", h.AdvanceNotice.Stats)
			}

			// 请假申请模块
			leaves := authorized.Group("/leave-requests")
			{
				leaves.POST("", intern, h.Leave.Create)
				leaves.GET("", h.Leave.List)
				leaves.GET("/stats", h.Leave.Stats)
				leaves.GET("/:id", h.Leave.Get)
				leaves.POST("/:id/approve", admin, h.Leave.Approve)
				leaves.POST("/:id/reject", admin, h.Leave.Reject)
			}

			// 补打卡申请模块
			retros := authorized.Group("/retro-clocks")
			{
				retros.POST("", intern, h.RetroClock.Create)
				retros.GET("", h.RetroClock.List)
				retros.GET("/stats", h.RetroClock.Stats)
				retros.GET("/:id", h.RetroClock.Get)
				retros.POST("/:id/approve", admin, h.RetroClock.Approve)
				retros.POST("/:id/reject", admin, h.RetroClock.Reject)
			}

			// 附件模块
			attachments := authorized.Group("/attachments")
			{
				attachments.POST("", h.Attachment.Upload)
				attachments.GET("/url", h.Attachment.PresignURL)
			}

			// 月度积分模块
			scores := authorized.Group("/scores")
			{
				scores.GET("/detail", h.Score.GetScore)
				scores.GET("", admin, h.Score.Ranking)
				scores.POST("/adjust", admin, h.Score.Adjust)
				scores.POST("/recalculate", admin, h.Score.Recalculate)
				scores.POST("/broadcast", admin, h.Score.Broadcast)
				scores.POST("/:user_id/calculate", admin, h.Score.Calculate)
			}

			// 系统配置模块（管理员）
			systemConfigs := authorized.Group("/system-configs", admin)
			{
				systemConfigs.GET("", h.SystemConfig.ListConfigs)
				systemConfigs.POST("/reload", h.SystemConfig.ReloadConfig)
				systemConfigs.PUT("/:key", h.SystemConfig.UpdateConfig)
			}

			// 导出 / 日历 / 审计（管理员）
			authorized.GET("/export/monthly", admin, h.Export.ExportMonth)
			authorized.GET("/calendar/leaves.ics", admin, h.Calendar.LeaveFeed)
			authorized.GET("/audit-logs", admin, h.Audit.List)
		}
	}

	return r
}
