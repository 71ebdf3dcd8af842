package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/datawarta/tanya/catalog"
	"github.com/datawarta/tanya/errors"
)

var collectionsCatalogFlag string

// CollectionsCmd lists the schema catalog the router works against.
var CollectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List the collections in the schema catalog",
	Long: `List every collection the engine can route questions to, with its
shape, dimensions, and any fields that require normalization.

Examples:
  tanya collections
  tanya collections --catalog ./catalog.json`,
	RunE: runCollections,
}

func init() {
	CollectionsCmd.Flags().StringVar(&collectionsCatalogFlag, "catalog", "", "Path to a catalog JSON file (builtin catalog when empty)")
}

func runCollections(cmd *cobra.Command, args []string) error {
	cat := catalog.Default()
	if collectionsCatalogFlag != "" {
		loaded, err := catalog.LoadFile(collectionsCatalogFlag)
		if err != nil {
			return errors.Wrapf(err, "failed to load catalog from %s", collectionsCatalogFlag)
		}
		cat = loaded
	}

	pterm.DefaultHeader.WithFullWidth().Printf("Schema Catalog (%d collections)", cat.Len())
	pterm.Println()

	for _, desc := range cat.Descriptors() {
		pterm.Info.Printf("%s (%s, ~%d docs)\n", desc.Name, desc.Shape, desc.DocCount)
		pterm.Printf("  %s\n", desc.Description)
		if len(desc.Dimensions) > 0 {
			pterm.Printf("  Dimensions: %s\n", strings.Join(desc.Dimensions, ", "))
		}
		if irregular := desc.IrregularFields(); len(irregular) > 0 {
			notes := make([]string, len(irregular))
			for i, f := range irregular {
				notes[i] = fmt.Sprintf("%s (%s -> %s)", f.Name, f.Irregularity, f.Canonical)
			}
			pterm.Printf("  Normalized fields: %s\n", strings.Join(notes, ", "))
		}
		pterm.Println()
	}

	return nil
}
