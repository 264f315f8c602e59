package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"
)

const rule = "--------------------------------------------------------------------------------"

// =============================================================================
// ERROR LOG
// =============================================================================

// ErrorLogEntry is one problem found while decoding a file: a fatal failure,
// a validation error, a field issue or a dropped-envelope warning.
type ErrorLogEntry struct {
	Timestamp time.Time
	FileName  string

	// ErrorType is "format", "malformed_data", "schema_not_found", "io",
	// "validation", "field" or "warning".
	ErrorType    string
	ErrorMessage string

	// Location of the problem, when known. Transaction is "code/control".
	Interchange string
	Group       string
	Transaction string
	Segment     string
	Position    int
}

// Location renders the envelope path of the entry, for example
// "ISA 000000001 > GS 1 > ST 850/0001 > N1-02". Empty when nothing is known.
func (e ErrorLogEntry) Location() string {
	var parts []string
	if e.Interchange != "" {
		parts = append(parts, "ISA "+e.Interchange)
	}
	if e.Group != "" {
		parts = append(parts, "GS "+e.Group)
	}
	if e.Transaction != "" {
		parts = append(parts, "ST "+e.Transaction)
	}
	if e.Segment != "" {
		seg := e.Segment
		if e.Position > 0 {
			seg += fmt.Sprintf("-%02d", e.Position)
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, " > ")
}

// WriteErrorLog writes entries to error_log_<timestamp>.txt in outputDir,
// grouped by input file in order of first appearance. No file is written for
// an empty list.
//
// RETURNS:
//   - The path of the log, or "" when entries is empty.
//   - An error if the file cannot be written.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	var order []string
	byFile := make(map[string][]ErrorLogEntry)
	for _, e := range entries {
		if _, ok := byFile[e.FileName]; !ok {
			order = append(order, e.FileName)
		}
		byFile[e.FileName] = append(byFile[e.FileName], e)
	}

	now := time.Now()
	return writeReport(outputDir, "error_log", now, func(w *bufio.Writer) {
		fmt.Fprintf(w, "X12 Decoder - Error Log\nGenerated: %s\nFiles: %d  Entries: %d\n\n",
			now.Format(time.DateTime), len(order), len(entries))

		for _, name := range order {
			fileEntries := byFile[name]
			fmt.Fprintf(w, "%s\n%s (%s)\n%s\n", rule, name, countByType(fileEntries), rule)
			for _, e := range fileEntries {
				fmt.Fprintf(w, "%s  [%s]", e.Timestamp.Format(time.TimeOnly), e.ErrorType)
				if loc := e.Location(); loc != "" {
					fmt.Fprintf(w, " %s:", loc)
				}
				fmt.Fprintf(w, " %s\n", e.ErrorMessage)
			}
			w.WriteString("\n")
		}
	})
}

// countByType renders "2 validation, 1 field" in first-seen order.
func countByType(entries []ErrorLogEntry) string {
	var types []string
	counts := make(map[string]int)
	for _, e := range entries {
		if counts[e.ErrorType] == 0 {
			types = append(types, e.ErrorType)
		}
		counts[e.ErrorType]++
	}
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = fmt.Sprintf("%d %s", counts[t], t)
	}
	return strings.Join(parts, ", ")
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary holds the statistics of one decode run.
type ProcessingSummary struct {
	StartTime         time.Time
	EndTime           time.Time
	TotalFiles        int
	SuccessfulFiles   int
	FailedFiles       int
	TotalInterchanges int
	TotalGroups       int
	TotalTransactions int
	ValidationErrors  int
	Warnings          int
	ProcessedFiles    []ProcessedFileInfo
	FailedFilesList   []FailedFileInfo
}

// ProcessedFileInfo describes one successfully decoded file.
type ProcessedFileInfo struct {
	InputFile    string
	OutputFile   string
	ArchivePath  string
	Partner      string
	BatchID      string
	Interchanges int
	Groups       int
	Transactions int
	ProcessTime  time.Duration
}

// FailedFileInfo describes one file that could not be decoded.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
	ErrorType    string
}

// WriteSummaryLog writes processing_summary_<timestamp>.txt to outputDir.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	return writeReport(outputDir, "processing_summary", time.Now(), func(w *bufio.Writer) {
		fmt.Fprintf(w, "X12 Decoder - Processing Summary\n%s to %s (%s)\n\n",
			summary.StartTime.Format(time.DateTime),
			summary.EndTime.Format(time.DateTime),
			summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond))

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, row := range [][2]any{
			{"Files", summary.TotalFiles},
			{"Succeeded", summary.SuccessfulFiles},
			{"Failed", summary.FailedFiles},
			{"Interchanges", summary.TotalInterchanges},
			{"Functional groups", summary.TotalGroups},
			{"Transaction sets", summary.TotalTransactions},
			{"Validation errors", summary.ValidationErrors},
			{"Warnings", summary.Warnings},
		} {
			fmt.Fprintf(tw, "%s:\t%d\n", row[0], row[1])
		}
		tw.Flush()

		if len(summary.ProcessedFiles) > 0 {
			fmt.Fprintf(w, "\nDecoded\n%s\n", rule)
			tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "INPUT\tPARTNER\tISA\tGS\tST\tTIME\tOUTPUT\tBATCH")
			for _, pf := range summary.ProcessedFiles {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
					filepath.Base(pf.InputFile), pf.Partner,
					pf.Interchanges, pf.Groups, pf.Transactions,
					pf.ProcessTime.Round(time.Microsecond),
					filepath.Base(pf.OutputFile), pf.BatchID)
			}
			tw.Flush()
		}

		if len(summary.FailedFilesList) > 0 {
			fmt.Fprintf(w, "\nFailed\n%s\n", rule)
			for _, ff := range summary.FailedFilesList {
				fmt.Fprintf(w, "%s [%s]\n    %s\n", filepath.Base(ff.InputFile), ff.ErrorType, ff.ErrorMessage)
			}
		}
	})
}

// writeReport creates <prefix>_<timestamp>.txt in dir and fills it with body.
func writeReport(dir, prefix string, at time.Time, body func(*bufio.Writer)) (string, error) {
	path := filepath.Join(dir, prefix+"_"+at.Format("20060102_150405")+".txt")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", prefix, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	body(w)
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", prefix, err)
	}
	return path, nil
}
