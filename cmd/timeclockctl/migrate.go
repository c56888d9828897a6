package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"timeclock/config"
	"timeclock/internal/model"
	"timeclock/pkg/database"
	applogger "timeclock/pkg/logger"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rollbackSteps int

//nolint:gochecknoglobals // Cobra boilerplate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `migrate 将数据库结构升级到最新版本。
postgres 执行内嵌的 SQL 迁移；sqlite 使用 AutoMigrate。
--rollback N 回滚最近 N 个迁移版本（仅 postgres）。`,
	RunE: runMigrate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	migrateCmd.Flags().IntVar(&rollbackSteps, "rollback", 0, "number of migration steps to roll back")
	rootCmd.AddCommand(migrateCmd)
}

// runMigrate 迁移只需要数据库，不初始化 Redis 与业务服务
func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if rollbackSteps > 0 {
		if cfg.Database.Driver != "postgres" {
			return errors.New("回滚仅支持 postgres")
		}
		return database.RollbackMigration(sqlDB, rollbackSteps, logger)
	}

	if err := database.Migrate(db, cfg.Database.Driver, model.AllModels(), logger); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	logger.Info("数据库迁移完成", zap.String("driver", cfg.Database.Driver))
	return nil
}

