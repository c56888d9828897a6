// Package app 组装进程级依赖，供 HTTP 服务与运维命令行共用
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"timeclock/config"
	"timeclock/internal/model"
	"timeclock/internal/repository"
	"timeclock/internal/service"
	"timeclock/pkg/database"
	"timeclock/pkg/jwt"
	applogger "timeclock/pkg/logger"
	"timeclock/pkg/notify"
	"timeclock/pkg/redis"
	"timeclock/pkg/storage"
)

// App 已初始化的依赖集合
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *gorm.DB
	Redis   *redis.Client // 可能为 nil（降级运行）
	JWT     *jwt.Manager
	Service *service.Service
}

// Options 启动选项
type Options struct {
	ConfigPath string
	// Migrate 为 true 时在组装服务前执行迁移
	Migrate bool
}

// New 按 配置 → 日志 → 数据库 → Redis → 服务 的顺序初始化
func New(ctx context.Context, opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	loc, err := cfg.Attendance.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, DB: db}

	if opts.Migrate {
		if err := database.Migrate(db, cfg.Database.Driver, model.AllModels(), logger); err != nil {
			a.Close()
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	// Redis 可选：连接失败时黑名单、限流、配置广播降级
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与配置广播将不可用", zap.Error(err))
		rdb = nil
	}
	a.Redis = rdb

	store, err := storage.New(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("初始化附件存储失败: %w", err)
	}

	a.JWT = jwt.NewManager(&cfg.Auth)

	deps := service.Deps{
		Repo:     repository.NewRepository(db),
		JWT:      a.JWT,
		Notifier: notify.New(cfg, logger),
		Store:    store,
		Location: loc,
		Logger:   logger,
	}
	// 避免把 nil *redis.Client 装进接口
	if rdb != nil {
		deps.Blacklist = rdb
		deps.Broadcaster = rdb
	}
	a.Service = service.NewService(deps)

	return a, nil
}

// WatchConfigReload 订阅其他实例的配置变更广播，ctx 取消时返回
func (a *App) WatchConfigReload(ctx context.Context) {
	if a.Redis == nil {
		return
	}
	a.Redis.SubscribeConfigReload(ctx, a.Service.Config.InstanceID(), a.Service.Config.ReloadLocal)
}

// Close 释放数据库与 Redis 连接
func (a *App) Close() {
	var errs []error
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.Logger.Warn("关闭连接时出错", zap.Error(err))
	}
	_ = a.Logger.Sync()
}
