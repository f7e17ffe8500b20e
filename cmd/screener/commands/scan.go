package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pennyscan/internal/contracts"
	"github.com/wonny/pennyscan/internal/pipeline"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan and exit",
	Long: `Runs a single scan through the same pipeline the service uses.

Without --force the market-hours window still applies, so a scan outside
the window exits immediately with "skipped: outside window".

Example:
  go run ./cmd/screener scan
  go run ./cmd/screener scan --force --dry-run`,
	RunE: runScan,
}

var (
	scanForce  bool
	scanDryRun bool
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().BoolVar(&scanForce, "force", false, "ignore the market-hours window")
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "log the report instead of sending it")
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{dryRun: scanDryRun})
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := a.pipeline.Run(ctx, pipeline.Options{Force: scanForce})

	out := cmd.OutOrStdout()
	if result.Message != "" {
		fmt.Fprintln(out, result.Message)
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "%s (%s)\n", result.Summary(), result.Duration.Round(time.Millisecond))
	if result.Report != nil {
		fmt.Fprintf(out, "universe=%d evaluated=%d failed=%d notified=%t\n",
			result.Report.UniverseSize, result.Report.Evaluated, result.Report.Failed, result.Notified)
	}

	if result.Outcome == contracts.OutcomeFetchError {
		return fmt.Errorf("scan failed: %w", result.Err)
	}
	return nil
}
