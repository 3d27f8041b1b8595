package cmd

import (
	"github.com/mj1618/shopshield/internal/output"
	"github.com/mj1618/shopshield/internal/overridelog"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show or clear the override log",
	Long: `List recorded overrides, newest first, or delete them all with --clear.

Examples:
  shopshield logs
  shopshield logs --limit 10 --format json
  shopshield logs --clear`,
	RunE: runLogs,
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().Int("limit", overridelog.DefaultLimit, "Maximum entries to show")
	logsCmd.Flags().Bool("clear", false, "Delete every recorded override")
}

func runLogs(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	clearAll, _ := cmd.Flags().GetBool("clear")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := overridelog.Open(cfg.LogPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if clearAll {
		n, err := store.Clear(ctx)
		if err != nil {
			return err
		}
		return output.Print(output.ClearResult{OK: true, Cleared: n})
	}

	entries, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	return output.Print(output.LogsResult{Count: len(entries), Entries: entries})
}
