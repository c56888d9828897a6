package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"timeclock/internal/app"
)

//nolint:gochecknoglobals // Cobra boilerplate
var seedConfigCmd = &cobra.Command{
	Use:   "seed-config",
	Short: "Insert default system config values that are missing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			if err := a.Service.Config.SeedDefaults(ctx); err != nil {
				return err
			}
			a.Logger.Info("系统配置初始化完成")
			return nil
		})
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var reloadConfigCmd = &cobra.Command{
	Use:   "reload-config",
	Short: "Broadcast a config reload to all running instances",
	Long: `reload-config 通过 Redis 频道通知所有服务实例清空系统配置缓存。
直接修改 system_configs 表后执行。`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			if a.Redis == nil {
				a.Logger.Warn("Redis 不可用，其他实例需等待缓存过期或重启")
			}
			if err := a.Service.Config.Reload(ctx); err != nil {
				return err
			}
			a.Logger.Info("已广播配置重载", zap.String("origin", a.Service.Config.InstanceID()))
			return nil
		})
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(seedConfigCmd, reloadConfigCmd)
}
