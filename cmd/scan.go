package cmd

import (
	"log/slog"

	"github.com/mj1618/shopshield/internal/guard"
	"github.com/mj1618/shopshield/internal/output"
	"github.com/mj1618/shopshield/internal/scan"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan FILE",
	Short: "Find and neutralize checkout elements in an HTML page",
	Long: `Run one scanner pass over an HTML file (or - for stdin) and report every
checkout or payment element found. With --out, the neutralized page is
written to a file.

Examples:
  shopshield scan cart.html --url https://shop.example.com/cart
  curl -s https://shop.example.com/cart | shopshield scan - --out blocked.html`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().String("url", "", "Page URL (default "+defaultPageURL+")")
	scanCmd.Flags().String("out", "", "Write the neutralized page to this file")
}

func runScan(cmd *cobra.Command, args []string) error {
	pageURL, _ := cmd.Flags().GetString("url")
	out, _ := cmd.Flags().GetString("out")

	page, err := loadPage(cmd.Context(), args[0], pageURL)
	if err != nil {
		return err
	}

	logger := slog.Default()
	res := scan.New(page, guard.New(guard.WithLogger(logger)), logger).Scan(page.Document())

	if out != "" {
		if err := writePage(page, out); err != nil {
			return err
		}
	}
	return output.Print(res.Report(page.URL()))
}
