package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	screenFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "pennyscan - intraday penny-stock momentum screener",
	Long: `pennyscan

Scans the US equity universe during market hours for low-priced stocks
gapping up on heavy volume, and posts the matches to Telegram.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener serve
  go run ./cmd/screener scan --force --dry-run
  go run ./cmd/screener check --telegram`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&screenFile, "screen", "", "screen criteria YAML (overrides SCREEN_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
