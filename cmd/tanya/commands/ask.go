package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/datawarta/tanya"
	"github.com/datawarta/tanya/config"
	"github.com/datawarta/tanya/engine"
	"github.com/datawarta/tanya/errors"
)

var (
	askLocaleFlag  string
	askJSONFlag    bool
	askTimeoutFlag time.Duration
)

// AskCmd answers a single business question end to end.
var AskCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a business question against the sales collections",
	Long: `Ask a business question in Indonesian or English.

The question is routed to the best-matching collection, translated into an
aggregation pipeline, executed, and summarized as a narrative.

Examples:
  tanya ask "tampilkan penjualan per lokasi bulan juni"
  tanya ask "monthly revenue trend for 2025"
  tanya ask --locale en --json "top products by revenue"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	AskCmd.Flags().StringVar(&askLocaleFlag, "locale", "", "Locale hint: id or en (auto-detected when empty)")
	AskCmd.Flags().BoolVar(&askJSONFlag, "json", false, "Print the answer as JSON")
	AskCmd.Flags().DurationVar(&askTimeoutFlag, "timeout", 2*time.Minute, "Overall request timeout")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), askTimeoutFlag)
	defer cancel()

	svc, err := tanya.NewService(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "failed to connect to document store")
	}
	defer svc.Close(context.Background())

	var spinner *pterm.SpinnerPrinter
	if !askJSONFlag {
		spinner, _ = pterm.DefaultSpinner.Start("Resolving question...")
	}

	answer, err := svc.Ask(ctx, tanya.Question{Text: question, Locale: askLocaleFlag})
	if err != nil {
		if spinner != nil {
			spinner.Fail("Query failed")
		}
		var reqErr *engine.RequestError
		if errors.As(err, &reqErr) {
			printFailure(reqErr)
			os.Exit(1)
		}
		return err
	}
	if spinner != nil {
		spinner.Success("Answer ready")
	}

	if askJSONFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	printAnswer(answer)
	return nil
}

func printAnswer(a *tanya.Answer) {
	pterm.Println()
	pterm.Info.Printf("Collection: %s (answered in %d attempt(s))\n", a.Collection, a.Attempts)
	pterm.Println()

	if len(a.Rows) == 0 {
		pterm.Warning.Println("No rows matched the question")
	} else {
		printRowTable(a.Rows)
	}

	if a.Narrative != "" {
		pterm.Println()
		pterm.DefaultBox.WithTitle("Insight").Println(a.Narrative)
	}
}

// printRowTable renders flattened result rows. Column order follows the
// first row's sorted keys so repeated runs render identically.
func printRowTable(rows []map[string]any) {
	keys := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := pterm.TableData{keys}
	for _, row := range rows {
		line := make([]string, len(keys))
		for i, k := range keys {
			line[i] = formatCell(row[k])
		}
		data = append(data, line)
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		// Fall back to plain output if the terminal rejects the table.
		for _, row := range rows {
			parts := make([]string, len(keys))
			for i, k := range keys {
				parts[i] = fmt.Sprintf("%s=%s", k, formatCell(row[k]))
			}
			pterm.Printf("  %s\n", strings.Join(parts, "  "))
		}
	}
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%.2f", x)
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", x)
	}
}

func printFailure(reqErr *engine.RequestError) {
	pterm.Println()
	if reqErr.IsRoutingMiss() {
		pterm.Error.Println("No collection can answer this question")
		pterm.Info.Println("Try 'tanya collections' to see what the catalog covers")
		return
	}

	pterm.Error.Printf("Query failed after %d attempt(s)\n", reqErr.Attempts)
	pterm.Println()
	pterm.Info.Println("Diagnostics (most recent first):")
	for _, d := range reqErr.Diagnostics {
		if d.StageIndex >= 0 {
			pterm.Printf("  attempt %d: [%s] %s (stage %d)\n", d.Attempt, d.Kind, d.Reason, d.StageIndex)
		} else {
			pterm.Printf("  attempt %d: [%s] %s\n", d.Attempt, d.Kind, d.Reason)
		}
	}
}
