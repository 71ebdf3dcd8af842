package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/datawarta/tanya"
	"github.com/datawarta/tanya/config"
	"github.com/datawarta/tanya/errors"
)

// HealthCmd probes catalog and store readiness.
var HealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check catalog and store readiness",
	Long: `Check that the schema catalog is loaded and the document store answers
a ping. Exits non-zero when the engine cannot serve queries.`,
	RunE: runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	svc, err := tanya.NewService(ctx, cfg)
	if err != nil {
		pterm.Error.Printf("Store unreachable: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close(context.Background())

	h := svc.Health(ctx)

	if h.CatalogLoaded {
		pterm.Success.Println("Catalog loaded")
	} else {
		pterm.Error.Println("Catalog empty")
	}
	if h.StoreReachable {
		pterm.Success.Println("Store reachable")
	} else {
		pterm.Error.Printf("Store unreachable: %s\n", h.StoreError)
	}
	keyConfigured := cfg.OpenRouter.APIKey != ""
	if keyConfigured {
		pterm.Success.Println("OpenRouter API key configured")
	} else {
		pterm.Warning.Println("OpenRouter API key not configured (set TANYA_OPENROUTER_API_KEY)")
	}

	if !h.Ready() || !keyConfigured {
		return errors.New("not ready to serve queries")
	}
	return nil
}
