// =============================================================================
// X12 Decoder - Decode Command
// =============================================================================
//
// This file defines the 'decode' command, which runs the decode pipeline for
// every input file.
//
// COMMAND USAGE:
//   x12dec decode [flags]
//
// FLAGS:
//   --dry-run  : Decode and render without writing or archiving anything
//   --file     : Decode a single file instead of scanning the input directory
//   --partner  : Only decode files of this partner (or force it for --file)
//   --strict   : Treat an ISA inside an open interchange as fatal
//   --dump     : Print the decoded batches to stdout
//
// PROCESSING PIPELINE:
//   1. Build the schema registry (builtin, XLSX workbooks, YAML maps)
//   2. Load the partner configurations
//   3. Discover input files and match each one to a partner
//   4. Decode the files concurrently, bounded by max_concurrency
//   5. Write the error log, the summary log and the metrics textfile
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/x12-decoder/internal/config"
	"github.com/ginjaninja78/x12-decoder/internal/converter"
	"github.com/ginjaninja78/x12-decoder/internal/metrics"
	"github.com/ginjaninja78/x12-decoder/internal/schema"
	"github.com/ginjaninja78/x12-decoder/internal/xlsxparser"
	"github.com/ginjaninja78/x12-decoder/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dryRun      bool
	filePath    string
	partnerCode string
	strict      bool
	dump        bool
)

// =============================================================================
// DECODE COMMAND DEFINITION
// =============================================================================

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode X12 files and convert them to XML",
	Long: `The decode command scans the input directory for X12 files, matches them
to a trading-partner configuration and decodes each into an XML document.

Files are decoded concurrently. Envelope count and control-number mismatches
are recorded in the XML and in the error log but do not fail a file; files
that are not X12, or whose envelopes are out of order, do.

On success:
  - The generated XML is placed in the output directory
  - The input file is moved to the input archive
On error:
  - The input file stays in the input directory
  - The failure is written to the error log`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecode(cmd)
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Decode without writing output or archiving")
	decodeCmd.Flags().StringVar(&filePath, "file", "", "Path to a single file to decode")
	decodeCmd.Flags().StringVar(&partnerCode, "partner", "", "Only decode files of this partner code")
	decodeCmd.Flags().BoolVar(&strict, "strict", false, "Fail on an ISA inside an open interchange")
	decodeCmd.Flags().BoolVar(&dump, "dump", false, "Print the decoded batches")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runDecode(cmd *cobra.Command) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()
	cfg := mainConfig

	// =========================================================================
	// STEP 1: SCHEMAS AND PARTNERS
	// =========================================================================

	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	partners, err := config.LoadPartnerConfigs(cfg.PartnersDir)
	if err != nil {
		return fmt.Errorf("failed to load partner configs: %w", err)
	}
	logger.Info("configuration loaded", "partners", len(partners), "versions", registry.Versions())

	var forced *config.PartnerConfig
	if partnerCode != "" {
		p, ok := partners[partnerCode]
		if !ok {
			return fmt.Errorf("unknown partner %q", partnerCode)
		}
		forced = p
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	files := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir)
	if err := files.EnsureDirectories(); err != nil {
		return err
	}

	var inputFiles []string
	if filePath != "" {
		inputFiles = []string{filePath}
	} else {
		inputFiles, err = files.DiscoverInputFiles(cfg.FilePatterns)
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	jobs := make([]job, 0, len(inputFiles))
	for _, f := range inputFiles {
		partner, matched := config.MatchPartner(partners, f)
		switch {
		case filePath != "" && forced != nil:
			partner = forced
		case forced != nil && (!matched || partner.PartnerCode != forced.PartnerCode):
			continue
		}
		jobs = append(jobs, job{path: f, partner: partner})
	}

	if len(jobs) == 0 {
		fmt.Fprintln(out, "No X12 files found in the input directory.")
		return nil
	}
	fmt.Fprintf(out, "Found %d file(s) to decode\n", len(jobs))

	// =========================================================================
	// STEP 3: DECODE FILES CONCURRENTLY
	// =========================================================================

	m := metrics.New()
	opts := []converter.Option{
		converter.WithLogger(logger),
		converter.WithMetrics(m),
		converter.WithDryRun(dryRun),
	}
	if cmd.Flags().Changed("strict") {
		opts = append(opts, converter.WithDecoderOverride(config.DecoderSettings{StrictInterchanges: &strict}))
	}

	results := make([]converter.Result, len(jobs))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(cfg.MaxConcurrency)
	for i, j := range jobs {
		g.Go(func() error {
			results[i] = converter.New(j.path, j.partner, cfg, registry, opts...).Run(ctx)
			if !results[i].Success && !cfg.ContinueOnError {
				return results[i].Error
			}
			return nil
		})
	}
	runErr := g.Wait()

	// =========================================================================
	// STEP 4: COLLECT RESULTS
	// =========================================================================

	summary := utils.ProcessingSummary{StartTime: startTime, TotalFiles: len(jobs)}
	var entries []utils.ErrorLogEntry

	for _, result := range results {
		name := filepath.Base(result.FilePath)
		entries = append(entries, result.Entries...)
		summary.TotalInterchanges += result.Stats.Interchanges
		summary.TotalGroups += result.Stats.Groups
		summary.TotalTransactions += result.Stats.Transactions
		summary.ValidationErrors += result.Stats.ValidationErrors
		summary.Warnings += result.Stats.Warnings

		if result.Success {
			summary.SuccessfulFiles++
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:    result.FilePath,
				OutputFile:   result.OutputFile,
				ArchivePath:  result.ArchivePath,
				Partner:      result.Partner,
				BatchID:      result.Batch.ID,
				Interchanges: result.Stats.Interchanges,
				Groups:       result.Stats.Groups,
				Transactions: result.Stats.Transactions,
				ProcessTime:  result.Stats.ProcessingTime,
			})
			fmt.Fprintf(out, "  ✓ %s -> %s (%d transaction set(s), %d validation error(s))\n",
				name, filepath.Base(result.OutputFile), result.Stats.Transactions, result.Stats.ValidationErrors)
		} else {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    result.FilePath,
				ErrorMessage: errorText(result.Error),
				ErrorType:    result.ErrorKind,
			})
			fmt.Fprintf(out, "  ✗ %s: %s\n", name, errorText(result.Error))
		}

		if dump && result.Batch != nil {
			fmt.Fprintf(out, "--- %s ---\n", name)
			spew.Fdump(out, result.Batch)
		}
	}
	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 5: REPORTS
	// =========================================================================

	fmt.Fprintln(out, "\n=== Decoding Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	if !dryRun {
		if err := writeReports(out, summary, entries); err != nil {
			return err
		}
	}

	if cfg.MetricsFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.MetricsFile), 0755); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("decoding stopped: %w", runErr)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

type job struct {
	path    string
	partner *config.PartnerConfig
}

// loadRegistry builds the schema registry: builtin definitions, then XLSX
// workbooks from schemas_dir, then YAML transaction maps from maps_dir.
// Later definitions replace earlier ones.
func loadRegistry(cfg *config.MainConfig) (*schema.Registry, error) {
	registry := schema.NewBuiltinRegistry()

	n, err := xlsxparser.LoadDir(cfg.SchemasDir, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to load segment workbooks: %w", err)
	}

	maps, err := config.LoadTransactionMaps(cfg.MapsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction maps: %w", err)
	}
	for _, m := range maps {
		if err := registry.RegisterTransaction(m); err != nil {
			return nil, fmt.Errorf("failed to register transaction map %s/%s: %w", m.Version, m.Code, err)
		}
	}

	logger.Debug("schema registry built", "workbook_segments", n, "transaction_maps", len(maps))
	return registry, nil
}

func writeReports(out io.Writer, summary utils.ProcessingSummary, entries []utils.ErrorLogEntry) error {
	dir := mainConfig.OutputDir

	errorLog, err := utils.WriteErrorLog(entries, dir)
	if err != nil {
		return err
	}
	if errorLog != "" {
		fmt.Fprintf(out, "Errors have been logged to %s\n", errorLog)
	}

	summaryLog, err := utils.WriteSummaryLog(summary, dir)
	if err != nil {
		return err
	}
	logger.Info("run complete", "summary", summaryLog,
		"files", summary.TotalFiles, "failed", summary.FailedFiles)
	return nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
