package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pennyscan/internal/external/telegram"
	"github.com/wonny/pennyscan/internal/screenconfig"
	"github.com/wonny/pennyscan/internal/timegate"
	"github.com/wonny/pennyscan/pkg/httputil"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and print the effective screen",
	Long: `Loads the environment and screen file exactly as serve does, validates
them, and prints the criteria a scan would use.

With --telegram the bot token is verified against the Bot API.

Example:
  go run ./cmd/screener check
  go run ./cmd/screener check --screen config/screen.yaml --telegram`,
	RunE: runCheck,
}

var checkTelegram bool

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkTelegram, "telegram", false, "verify the Telegram bot token")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, log, screen, err := loadConfig()
	if err != nil {
		return err
	}

	hash, err := screenconfig.Hash(screen)
	if err != nil {
		return fmt.Errorf("hash screen config: %w", err)
	}
	gate, err := timegate.New(screen.Window)
	if err != nil {
		return fmt.Errorf("create time gate: %w", err)
	}

	out := cmd.OutOrStdout()
	printScreen(out, screen, hash)
	fmt.Fprintf(out, "  Source    : %s\n", cfg.DataSource)
	fmt.Fprintf(out, "  Telegram  : %t\n", cfg.Telegram.Enabled)
	fmt.Fprintf(out, "  In window : %t (%s)\n", gate.IsWithinScanWindow(time.Now()), time.Now().In(gate.Location()).Format("Mon 15:04 MST"))

	if checkTelegram {
		if !cfg.Telegram.Enabled {
			return fmt.Errorf("telegram is disabled (TELEGRAM_ENABLED=false)")
		}
		notifier := telegram.NewNotifier(httputil.New(cfg, log), cfg.Telegram, log)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		username, err := notifier.Verify(ctx)
		if err != nil {
			return fmt.Errorf("verify telegram: %w", err)
		}
		fmt.Fprintf(out, "  Bot       : @%s\n", username)
	}

	fmt.Fprintln(out, "\n✅ Configuration OK")
	return nil
}

func printScreen(out io.Writer, screen *screenconfig.Config, hash string) {
	c := screen.Criteria
	w := screen.Window

	fmt.Fprintln(out, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(out, "  Screen")
	fmt.Fprintln(out, "───────────────────────────────────────────────────────────")
	fmt.Fprintf(out, "  Window    : %s-%s %s (weekdays only: %t)\n", w.Start, w.End, w.Timezone, w.WeekdaysOnly)
	fmt.Fprintf(out, "  Price     : %s\n", bounds(c.PriceMin, c.PriceMax, c.InclusiveUpperBounds))
	fmt.Fprintf(out, "  Gap       : >= %.2f%% vs %s\n", c.MinGapPercent, c.Reference)
	fmt.Fprintf(out, "  Volume    : >= %d\n", c.MinVolume)
	fmt.Fprintf(out, "  Rel Vol   : >= %.2f (%s)\n", c.MinRelativeVolume, screen.RelativeVolume.Mode)
	fmt.Fprintf(out, "  Mkt Cap $M: %s\n", bounds(c.MarketCapMin, c.MarketCapMax, c.InclusiveUpperBounds))
	fmt.Fprintf(out, "  Max lines : %d\n", screen.Report.MaxEntries)
	fmt.Fprintf(out, "  Hash      : %s\n", hash)
	fmt.Fprintln(out, "───────────────────────────────────────────────────────────")
}

func bounds(lo *float64, hi float64, inclusive bool) string {
	upper := "<"
	if inclusive {
		upper = "<="
	}
	if lo == nil {
		return fmt.Sprintf("%s %.2f", upper, hi)
	}
	return fmt.Sprintf(">= %.2f and %s %.2f", *lo, upper, hi)
}
