package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datawarta/tanya/cmd/tanya/commands"
	"github.com/datawarta/tanya/logger"
)

var jsonLogs bool

var rootCmd = &cobra.Command{
	Use:   "tanya",
	Short: "tanya - natural-language analytics over pre-aggregated sales collections",
	Long: `tanya answers business questions (Indonesian or English) by translating them
into aggregation pipelines against pre-aggregated MongoDB collections.

Available commands:
  ask          - Ask a business question
  collections  - List the collections in the schema catalog
  health       - Check catalog and store readiness

Examples:
  tanya ask "tampilkan penjualan per lokasi bulan juni"
  tanya ask "monthly revenue trend for 2025"
  tanya collections
  tanya health`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")

	rootCmd.AddCommand(commands.AskCmd)
	rootCmd.AddCommand(commands.CollectionsCmd)
	rootCmd.AddCommand(commands.HealthCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
