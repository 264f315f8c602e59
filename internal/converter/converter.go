// =============================================================================
// X12 Decoder - Converter Module
// =============================================================================
//
// This module orchestrates the decode pipeline for a single input file, from
// the raw X12 payload to the XML document on disk.
//
// CONVERSION PIPELINE:
//   1. Merge the decoder settings (main config, partner, command line)
//   2. Decode the payload into a fresh Batch
//   3. Collect validation errors, field issues and warnings for the error log
//   4. Generate the XML document
//   5. Write the output file
//   6. Archive the processed files
//
// CONCURRENCY:
//   A Converter owns its Decoder and Batch, so each file can run in its own
//   goroutine. The schema registry is shared and safe for concurrent reads.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/x12-decoder/internal/config"
	"github.com/ginjaninja78/x12-decoder/internal/metrics"
	"github.com/ginjaninja78/x12-decoder/internal/schema"
	"github.com/ginjaninja78/x12-decoder/internal/types"
	"github.com/ginjaninja78/x12-decoder/internal/x12"
	"github.com/ginjaninja78/x12-decoder/internal/xmlwriter"
	"github.com/ginjaninja78/x12-decoder/pkg/utils"
)

// DefaultPartnerCode is used in output names when no partner matched.
const DefaultPartnerCode = "default"

// =============================================================================
// RESULT TYPES
// =============================================================================

// Result contains the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file.
	FilePath string

	// OutputFile is the path to the generated XML file. Empty on failure and
	// in dry-run mode.
	OutputFile string

	// ArchivePath is where the input file was moved to.
	ArchivePath string

	// Partner is the code of the matched trading partner.
	Partner string

	// Success indicates whether the file was decoded and written.
	Success bool

	// Error holds the failure, if any.
	Error error

	// ErrorKind classifies Error: "format", "malformed_data",
	// "schema_not_found", "io" or "output".
	ErrorKind string

	// Batch is the decoded content. On a fatal decode error it holds the
	// interchanges that closed before the fault.
	Batch *x12.Batch

	// Entries are the error-log lines produced for this file.
	Entries []utils.ErrorLogEntry

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	Interchanges int
	Groups       int
	Transactions int

	// ValidationErrors counts the envelope validation errors. They are
	// recorded in the XML and never fail a file.
	ValidationErrors int

	// FieldIssues counts field-level issues on all decoded segments.
	FieldIssues int

	// Warnings counts dropped envelopes.
	Warnings int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the decoding of a single X12 file.
type Converter struct {
	filePath   string
	partner    *config.PartnerConfig
	mainConfig *config.MainConfig
	registry   *schema.Registry

	// override is applied on top of the main and partner decoder settings.
	override config.DecoderSettings

	files   *utils.FileManager
	metrics *metrics.Metrics
	logger  *slog.Logger
	dryRun  bool
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records the outcome of the file in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Converter) { c.metrics = m }
}

// WithDryRun decodes and renders without writing or archiving anything.
func WithDryRun(dryRun bool) Option {
	return func(c *Converter) { c.dryRun = dryRun }
}

// WithDecoderOverride applies settings from the command line after the
// partner settings.
func WithDecoderOverride(settings config.DecoderSettings) Option {
	return func(c *Converter) { c.override = settings }
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - filePath: The path to the input X12 file.
//   - partner: The matched trading partner, or nil for the defaults.
//   - mainConfig: The main application configuration.
//   - registry: The schema registry shared by every file of the run.
//
// RETURNS:
//   - A new Converter instance.
func New(filePath string, partner *config.PartnerConfig, mainConfig *config.MainConfig, registry *schema.Registry, opts ...Option) *Converter {
	c := &Converter{
		filePath:   filePath,
		partner:    partner,
		mainConfig: mainConfig,
		registry:   registry,
		files: utils.NewFileManager(
			mainConfig.InputDir,
			mainConfig.OutputDir,
			mainConfig.InputArchiveDir,
			mainConfig.OutputArchiveDir,
		),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the decode pipeline for the file.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
func (c *Converter) Run(ctx context.Context) (result Result) {
	startTime := time.Now()
	result = Result{
		FilePath: c.filePath,
		Partner:  c.partnerCode(),
	}
	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
		c.recordOutcome(&result)
	}()

	if err := ctx.Err(); err != nil {
		result.Error = err
		result.ErrorKind = "canceled"
		return result
	}

	logger := c.logger.With("file", filepath.Base(c.filePath), "partner", result.Partner)
	logger.Info("processing file")

	// =========================================================================
	// STEP 1: DECODER SETTINGS
	// =========================================================================

	settings := c.mainConfig.Decoder
	if c.partner != nil {
		settings = settings.Merge(c.partner.Decoder)
	}
	settings = settings.Merge(c.override)

	decoder := x12.NewDecoder(
		schema.NewResolver(c.registry, settings.FallbackVersion),
		x12.WithLogger(logger),
		x12.WithStrictInterchanges(settings.Strict()),
		x12.WithWarnUnterminated(settings.WarnOnUnterminated()),
	)

	// =========================================================================
	// STEP 2: DECODE
	// =========================================================================

	batch := x12.NewBatch()
	result.Batch = batch
	logger = logger.With("batch", batch.ID)

	decodeStart := time.Now()
	err := c.decodeFile(decoder, batch)
	if c.metrics != nil {
		c.metrics.ObserveDecode(decodeStart)
	}
	c.fillStats(&result)
	if err != nil {
		result.Error = fmt.Errorf("failed to decode %s: %w", filepath.Base(c.filePath), err)
		result.ErrorKind = classify(err)
		result.Entries = append(result.Entries, utils.ErrorLogEntry{
			Timestamp:    time.Now(),
			FileName:     filepath.Base(c.filePath),
			ErrorType:    result.ErrorKind,
			ErrorMessage: err.Error(),
			Segment:      failedSegment(err),
		})
		logger.Error("decode failed", "kind", result.ErrorKind, "error", err)
		return result
	}

	// =========================================================================
	// STEP 3: COLLECT PROBLEMS
	// =========================================================================

	result.Entries = append(result.Entries, collectEntries(filepath.Base(c.filePath), batch)...)
	logger.Debug("decoded",
		"interchanges", result.Stats.Interchanges,
		"groups", result.Stats.Groups,
		"transactions", result.Stats.Transactions,
		"validation_errors", result.Stats.ValidationErrors,
		"field_issues", result.Stats.FieldIssues)

	// =========================================================================
	// STEP 4: GENERATE XML DOCUMENT
	// =========================================================================

	xmlDoc, err := xmlwriter.GenerateWithOptions(batch, c.generateOptions())
	if err != nil {
		result.Error = fmt.Errorf("failed to generate XML: %w", err)
		result.ErrorKind = "output"
		return result
	}

	if c.dryRun {
		logger.Info("dry run, output not written", "bytes", len(xmlDoc))
		result.Success = true
		return result
	}

	// =========================================================================
	// STEP 5: WRITE OUTPUT FILE
	// =========================================================================

	outputPath, err := c.writeOutput(xmlDoc, batch)
	if err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		result.ErrorKind = "output"
		return result
	}
	result.OutputFile = outputPath
	logger.Info("wrote output", "path", outputPath)

	// =========================================================================
	// STEP 6: ARCHIVE FILES
	// =========================================================================
	// An archival failure is logged but does not fail the file.

	archivePath, err := c.archiveFiles(outputPath)
	if err != nil {
		logger.Warn("failed to archive files", "error", err)
	}
	result.ArchivePath = archivePath

	result.Success = true
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (c *Converter) decodeFile(decoder *x12.Decoder, batch *x12.Batch) error {
	f, err := os.Open(c.filePath)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()
	return decoder.DecodeReader(f, batch)
}

func (c *Converter) partnerCode() string {
	if c.partner == nil || c.partner.PartnerCode == "" {
		return DefaultPartnerCode
	}
	return c.partner.PartnerCode
}

func (c *Converter) generateOptions() xmlwriter.GenerateOptions {
	options := xmlwriter.DefaultGenerateOptions()
	if c.partner != nil {
		options.IncludeRaw = c.partner.Output.IncludeRaw
		if c.partner.Output.RootElement != "" {
			options.RootElement = c.partner.Output.RootElement
		}
		options.RootAttributes["partner"] = c.partner.PartnerCode
	}
	return options
}

// fillStats copies the batch counts into the result.
func (c *Converter) fillStats(result *Result) {
	batch := result.Batch
	result.Stats.Interchanges, result.Stats.Groups, result.Stats.Transactions = batch.Counts()
	result.Stats.ValidationErrors = batch.ValidationErrorCount()
	result.Stats.Warnings = len(batch.Warnings)
	result.Stats.FieldIssues = countIssues(batch)
}

// recordOutcome feeds the metrics once Run is done.
func (c *Converter) recordOutcome(result *Result) {
	if c.metrics == nil {
		return
	}
	s := result.Stats
	c.metrics.ObserveBatch(s.Interchanges, s.Groups, s.Transactions, s.ValidationErrors, s.Warnings)
	if result.Success {
		c.metrics.IncrementFile("success")
		return
	}
	c.metrics.IncrementFile("failed")
	c.metrics.IncrementFailure(result.ErrorKind)
}

// writeOutput writes the XML document to the output directory.
//
// FILE NAMING:
//   The output file is named according to the UUIDFormat in the main
//   configuration. Besides {uuid}, {timestamp}, {date} and {time} the
//   placeholders {partner} and {batch} are available. An existing file is
//   never replaced; a format without {uuid} or {batch} fails on reuse.
func (c *Converter) writeOutput(xmlDoc []byte, batch *x12.Batch) (string, error) {
	fileName := utils.GenerateOutputFileName(c.mainConfig.UUIDFormat, map[string]string{
		"partner": c.partnerCode(),
		"batch":   batch.ID,
	})
	outputPath := filepath.Join(c.mainConfig.OutputDir, fileName)

	out, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := out.Write(xmlDoc); err != nil {
		out.Close()
		os.Remove(outputPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(outputPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return outputPath, nil
}

// archiveFiles moves the input to the input archive and copies the output to
// the output archive.
func (c *Converter) archiveFiles(outputPath string) (string, error) {
	archivePath, err := c.files.ArchiveInputFile(c.filePath)
	if err != nil {
		return "", err
	}
	if _, err := c.files.ArchiveOutputFile(outputPath); err != nil {
		return archivePath, err
	}
	return archivePath, nil
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

// classify maps a decode error to the kind used in logs and metrics.
func classify(err error) string {
	var perr *x12.ParsingError
	if errors.As(err, &perr) {
		return perr.Kind.String()
	}
	return "io"
}

func failedSegment(err error) string {
	var perr *x12.ParsingError
	if errors.As(err, &perr) {
		return perr.Segment
	}
	return ""
}

// =============================================================================
// ERROR LOG ENTRIES
// =============================================================================

// collectEntries flattens every recoverable problem in batch into error-log
// entries: validation errors, field issues and warnings.
func collectEntries(fileName string, batch *x12.Batch) []utils.ErrorLogEntry {
	now := time.Now()
	var entries []utils.ErrorLogEntry

	add := func(errType, message string, ic *x12.Interchange, g *x12.Group, tx *x12.Transaction, seg string, pos int) {
		entry := utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     fileName,
			ErrorType:    errType,
			ErrorMessage: message,
			Segment:      seg,
			Position:     pos,
		}
		if ic != nil {
			entry.Interchange = ic.ControlNumber()
		}
		if g != nil {
			entry.Group = g.ControlNumber()
		}
		if tx != nil {
			entry.Transaction = tx.Code + "/" + tx.ControlNumber()
		}
		entries = append(entries, entry)
	}

	issues := func(seg *types.ParsedSegment, ic *x12.Interchange, g *x12.Group, tx *x12.Transaction) {
		if seg == nil {
			return
		}
		for _, issue := range seg.Issues {
			add("field", issue.String(), ic, g, tx, seg.Tag, issue.Position)
		}
	}

	for _, ic := range batch.Interchanges {
		issues(ic.Header, ic, nil, nil)
		for _, ve := range ic.ValidationErrors {
			add("validation", ve.Message, ic, nil, nil, ve.Segment, 0)
		}
		for _, g := range ic.Groups {
			issues(g.Header, ic, g, nil)
			for _, ve := range g.ValidationErrors {
				add("validation", ve.Message, ic, g, nil, ve.Segment, 0)
			}
			for _, tx := range g.Transactions {
				issues(tx.Header, ic, g, tx)
				walkLoop(tx.Body, func(seg *types.ParsedSegment) { issues(seg, ic, g, tx) })
				issues(tx.Trailer, ic, g, tx)
				for _, ve := range tx.ValidationErrors {
					add("validation", ve.Message, ic, g, tx, ve.Segment, 0)
				}
			}
			issues(g.Trailer, ic, g, nil)
		}
		issues(ic.Trailer, ic, nil, nil)
	}

	for _, w := range batch.Warnings {
		add("warning", w, nil, nil, nil, "", 0)
	}
	return entries
}

// countIssues sums the field issues on every segment of batch.
func countIssues(batch *x12.Batch) int {
	n := 0
	count := func(seg *types.ParsedSegment) {
		if seg != nil {
			n += len(seg.Issues)
		}
	}
	for _, ic := range batch.Interchanges {
		count(ic.Header)
		count(ic.Trailer)
		for _, g := range ic.Groups {
			count(g.Header)
			count(g.Trailer)
			for _, tx := range g.Transactions {
				count(tx.Header)
				count(tx.Trailer)
				walkLoop(tx.Body, count)
			}
		}
	}
	return n
}

// walkLoop visits the segments of loop and its descendants in document order.
func walkLoop(loop *types.Loop, visit func(*types.ParsedSegment)) {
	if loop == nil {
		return
	}
	for i := range loop.Segments {
		visit(&loop.Segments[i])
	}
	for _, child := range loop.Loops {
		walkLoop(child, visit)
	}
}
