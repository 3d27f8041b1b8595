package cmd

import (
	"fmt"
	"slices"

	"github.com/mj1618/shopshield/internal/output"
	"github.com/mj1618/shopshield/internal/settings"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change protection settings",
	Long: `Show the current settings: whether protection is enabled, the countdown
delay in seconds and the whitelisted domains.

Examples:
  shopshield settings
  shopshield settings set --delay 120
  shopshield settings set --enabled=false
  shopshield settings whitelist add shop.example.com`,
	Args: cobra.NoArgs,
	RunE: runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change enabled or delay",
	Args:  cobra.NoArgs,
	RunE:  runSettingsSet,
}

var whitelistCmd = &cobra.Command{
	Use:   "whitelist",
	Short: "Manage whitelisted domains",
}

var whitelistAddCmd = &cobra.Command{
	Use:   "add HOST...",
	Short: "Whitelist one or more domains",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateSettings(func(s *settings.Snapshot) {
			s.WhitelistDomains = append(s.WhitelistDomains, args...)
		})
	},
}

var whitelistRemoveCmd = &cobra.Command{
	Use:   "remove HOST...",
	Short: "Remove domains from the whitelist",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		drop := make(map[string]bool, len(args))
		for _, a := range args {
			drop[settings.NormalizeDomain(a)] = true
		}
		return updateSettings(func(s *settings.Snapshot) {
			s.WhitelistDomains = slices.DeleteFunc(s.WhitelistDomains, func(d string) bool {
				return drop[settings.NormalizeDomain(d)]
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsSetCmd, whitelistCmd)
	whitelistCmd.AddCommand(whitelistAddCmd, whitelistRemoveCmd)
	settingsSetCmd.Flags().Bool("enabled", true, "Enable protection")
	settingsSetCmd.Flags().Int("delay", settings.DefaultDelay,
		fmt.Sprintf("Countdown in seconds (%d-%d)", settings.MinDelay, settings.MaxDelay))
}

func settingsStore() (*settings.FileStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return settings.NewFileStore(cfg.SettingsPath), nil
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	store, err := settingsStore()
	if err != nil {
		return err
	}
	snap, err := store.Load()
	if err != nil {
		return err
	}
	return output.Print(snap)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	enabledSet := cmd.Flags().Changed("enabled")
	delaySet := cmd.Flags().Changed("delay")
	if !enabledSet && !delaySet {
		return fmt.Errorf("nothing to change: pass --enabled or --delay")
	}
	enabled, _ := cmd.Flags().GetBool("enabled")
	delay, _ := cmd.Flags().GetInt("delay")
	return updateSettings(func(s *settings.Snapshot) {
		if enabledSet {
			s.Enabled = enabled
		}
		if delaySet {
			s.DelaySeconds = delay
		}
	})
}

func updateSettings(fn func(*settings.Snapshot)) error {
	store, err := settingsStore()
	if err != nil {
		return err
	}
	snap, err := store.Update(fn)
	if err != nil {
		return err
	}
	return output.Print(snap)
}
