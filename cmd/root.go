package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mj1618/shopshield/internal/config"
	"github.com/mj1618/shopshield/internal/output"
	"github.com/mj1618/shopshield/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shopshield",
	Short: "Put a pause between you and the checkout button",
	Long: `shopshield finds checkout and payment controls on a web page, neutralizes
them, and holds them behind a short countdown. After the countdown you may
override; every override is recorded locally with an optional note.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Indent JSON output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug diagnostics to stderr")
	rootCmd.PersistentFlags().String("settings", "", "Settings file (default $SHOPSHIELD_HOME/settings.yaml or ~/.shopshield/settings.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Override log database (default next to the settings file)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")

		level := slog.LevelInfo
		if verbose, _ := rootCmd.PersistentFlags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	}
}

// loadConfig resolves file locations from the global flags.
func loadConfig() (*config.Config, error) {
	settingsPath, _ := rootCmd.PersistentFlags().GetString("settings")
	dbPath, _ := rootCmd.PersistentFlags().GetString("db")
	return config.Load(settingsPath, dbPath)
}
