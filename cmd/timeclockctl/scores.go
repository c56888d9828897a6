package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"timeclock/internal/app"
	"timeclock/pkg/timeutil"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	recalcMonth     string
	recalcBroadcast bool
)

//nolint:gochecknoglobals // Cobra boilerplate
var recalcScoresCmd = &cobra.Command{
	Use:   "recalc-scores",
	Short: "Recalculate monthly scores for every active intern",
	Long: `recalc-scores 全量重算指定月份所有在职实习生的积分（手动调整将被丢弃）。
--month 省略时取组织时区下的上一个月；--broadcast 重算后推送排名。`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			month := recalcMonth
			if month == "" {
				loc, err := a.Config.Attendance.Location()
				if err != nil {
					return err
				}
				month = previousMonth(time.Now(), loc)
			}

			result, err := a.Service.Score.RecalculateMonth(ctx, month)
			if err != nil {
				return err
			}
			a.Logger.Info("月度积分重算完成",
				zap.String("year_month", result.YearMonth),
				zap.Int("succeeded", result.Succeeded),
				zap.Strings("failed", result.Failed),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d succeeded, %d failed\n", result.YearMonth, result.Succeeded, len(result.Failed))

			if recalcBroadcast {
				return a.Service.Score.BroadcastRanking(ctx, month)
			}
			return nil
		})
	},
}

// previousMonth 组织时区下当前时刻的上一个月
func previousMonth(now time.Time, loc *time.Location) string {
	today := timeutil.CivilDate(now, loc)
	first := today.AddDate(0, 0, 1-today.Day())
	return timeutil.YearMonth(first.AddDate(0, -1, 0))
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	recalcScoresCmd.Flags().StringVar(&recalcMonth, "month", "", "target month (YYYY-MM)")
	recalcScoresCmd.Flags().BoolVar(&recalcBroadcast, "broadcast", false, "post the ranking to the info channel afterwards")
	rootCmd.AddCommand(recalcScoresCmd)
}
