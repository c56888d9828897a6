package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"timeclock/internal/api/handler"
	"timeclock/internal/api/router"
	"timeclock/internal/app"
)

func main() {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 1. 配置 / 日志 / 数据库（含迁移） / Redis / 服务
	a, err := app.New(ctx, app.Options{ConfigPath: os.Getenv("TIMECLOCK_CONFIG"), Migrate: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "启动失败: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()
	cfg, logger := a.Config, a.Logger

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("timezone", cfg.Attendance.Timezone),
	)

	// 2. 写入缺省的系统配置项（已存在的不覆盖）
	if err := a.Service.Config.SeedDefaults(ctx); err != nil {
		logger.Fatal("初始化系统配置失败", zap.Error(err))
	}

	// 3. 订阅其他实例的配置变更
	go a.WatchConfigReload(ctx)

	// 4. 路由
	guards := router.Guards{}
	if a.Redis != nil {
		guards.Revoked = a.Redis
		guards.Limiter = a.Redis
	}
	engine := router.Setup(cfg, handler.NewHandler(a.Service), a.JWT, guards, logger)

	// 5. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 6. 监听系统信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	logger.Info("服务器已关闭")
}
