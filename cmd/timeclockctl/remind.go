package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"timeclock/internal/app"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	remindDate   string
	remindDigest bool
)

//nolint:gochecknoglobals // Cobra boilerplate
var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send missing clock-in / clock-out reminders",
	Long: `remind 检查当日有排班的在职实习生，对未上班打卡或未下班打卡者推送提醒。
--digest 在月末额外推送本月出勤摘要。`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			result, err := a.Service.Reminder.Remind(ctx, remindDate, remindDigest)
			if err != nil {
				return err
			}
			a.Logger.Info("打卡提醒完成",
				zap.String("date", result.Date),
				zap.Int("checked", result.Checked),
				zap.Int("clock_in_sent", result.ClockInSent),
				zap.Int("clock_out_sent", result.ClockOutSent),
				zap.Int("skipped_no_term", result.SkippedNoTerm),
				zap.Bool("digest_sent", result.DigestSent),
			)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: checked=%d clock_in=%d clock_out=%d\n",
				result.Date, result.Checked, result.ClockInSent, result.ClockOutSent)
			if result.DigestSent {
				fmt.Fprintf(out, "digest sent for %s\n", result.DigestMonth)
			}
			if len(result.Failed) > 0 {
				return fmt.Errorf("以下工号提醒失败: %s", strings.Join(result.Failed, ", "))
			}
			return nil
		})
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	remindCmd.Flags().StringVar(&remindDate, "date", "", "date to check (YYYY-MM-DD, default today)")
	remindCmd.Flags().BoolVar(&remindDigest, "digest", false, "also send the month-end digest")
	rootCmd.AddCommand(remindCmd)
}
