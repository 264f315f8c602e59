// =============================================================================
// X12 Decoder - Schemas Command
// =============================================================================
//
// COMMAND USAGE:
//   x12dec schemas                          # list every version
//   x12dec schemas --version 005010         # list one version
//   x12dec schemas --export ./segments.xlsx # write the definitions to a workbook
//
// The listing reflects the registry exactly as 'decode' builds it: builtin
// definitions overlaid with schemas_dir workbooks and maps_dir transaction maps.
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/x12-decoder/internal/xlsxparser"
)

var (
	schemasVersion string
	exportPath     string
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List or export the loaded schema definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := loadRegistry(mainConfig)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if exportPath != "" {
			if err := xlsxparser.Export(registry, exportPath); err != nil {
				return fmt.Errorf("failed to export schemas: %w", err)
			}
			fmt.Fprintf(out, "Exported %d version(s) to %s\n", len(registry.Versions()), exportPath)
			return nil
		}

		versions := registry.Versions()
		if schemasVersion != "" {
			versions = []string{schemasVersion}
		}
		for _, v := range versions {
			segments := registry.Segments(v)
			codes := registry.Transactions(v)
			if len(segments) == 0 && len(codes) == 0 {
				return fmt.Errorf("no definitions for version %q", v)
			}

			fmt.Fprintf(out, "Version %s\n", v)
			fmt.Fprintf(out, "  Segments (%d): %s\n", len(segments), strings.Join(segments, " "))
			fmt.Fprintf(out, "  Transaction sets (%d):\n", len(codes))
			for _, code := range codes {
				m, _ := registry.LookupTransaction(v, code)
				fmt.Fprintf(out, "    %s  %s (%d loop(s))\n", code, m.Name, len(m.Loops))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemasCmd)

	schemasCmd.Flags().StringVar(&schemasVersion, "version", "", "Only list this version")
	schemasCmd.Flags().StringVar(&exportPath, "export", "", "Write the segment definitions to an XLSX workbook")
}
