package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"timeclock/internal/app"
)

//nolint:gochecknoglobals // Cobra boilerplate
var configFile string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "timeclockctl",
	Short: "Intern timeclock admin CLI",
	Long: `timeclockctl 执行考勤系统的运维任务：数据库迁移、系统配置初始化与广播、
月度积分重算以及每日打卡提醒。`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("TIMECLOCK_CONFIG"), "config file (default ./config/config.yaml)")
}

// withApp 初始化依赖后执行 fn，结束时释放连接
func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	a, err := app.New(ctx, app.Options{ConfigPath: configFile})
	if err != nil {
		return fmt.Errorf("初始化失败: %w", err)
	}
	defer a.Close()
	return fn(ctx, a)
}
