// =============================================================================
// X12 Decoder - File Manager Utility
// =============================================================================
//
// This module handles the files around a decode run:
//   - Input discovery over several glob patterns
//   - File archival (moving decoded inputs, copying generated XML)
//   - Output file naming
//
// Reports (error log, run summary) live in reports.go.
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to input_archive after a successful decode
//   - Output files are copied to output_archive
//   - Trading partners resend files under the same name, so an archive never
//     overwrites: a name that is taken gets a numeric suffix (claims_1.x12)
//   - Failed files remain in the input directory
//
// =============================================================================

package utils

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the decoder.
type FileManager struct {
	InputDir         string
	OutputDir        string
	InputArchiveDir  string
	OutputArchiveDir string

	// UseTimestampSubdirs files archives under year/month/day.
	// Example: input_archive/2024/01/15/claims.x12
	UseTimestampSubdirs bool

	// ArchiveOnSuccess enables archival. When false the archive methods
	// return the original path and touch nothing.
	ArchiveOnSuccess bool

	now func() time.Time
}

// NewFileManager creates a FileManager with archival enabled.
func NewFileManager(inputDir, outputDir, inputArchiveDir, outputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:         inputDir,
		OutputDir:        outputDir,
		InputArchiveDir:  inputArchiveDir,
		OutputArchiveDir: outputArchiveDir,
		ArchiveOnSuccess: true,
		now:              time.Now,
	}
}

// EnsureDirectories creates the input, output and archive directories.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.InputDir, fm.OutputDir, fm.InputArchiveDir, fm.OutputArchiveDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists the files in the input directory that match any of
// the patterns. Directories, empty files, hidden files and editor lock files
// ("~$...") are skipped; drop directories often hold zero-byte placeholders
// while a transfer is still running.
//
// RETURNS:
//   - The matching paths, sorted and without duplicates.
//   - An error if a pattern is malformed.
func (fm *FileManager) DiscoverInputFiles(patterns []string) ([]string, error) {
	found := make(map[string]struct{})
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("bad input pattern %q: %w", pattern, err)
		}
		for _, path := range matches {
			if pickable(path) {
				found[path] = struct{}{}
			}
		}
	}

	paths := make([]string, 0, len(found))
	for path := range found {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

func pickable(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves a decoded input file into the input archive.
//
// RETURNS:
//   - The archived path.
//   - An error if the file could not be moved.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	return fm.archive(fm.InputArchiveDir, filePath, true)
}

// ArchiveOutputFile copies a generated file into the output archive.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	return fm.archive(fm.OutputArchiveDir, filePath, false)
}

func (fm *FileManager) archive(root, filePath string, move bool) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	dir := root
	if fm.UseTimestampSubdirs {
		dir = filepath.Join(root, fm.now().Format(filepath.Join("2006", "01", "02")))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	dest, err := freeName(dir, filepath.Base(filePath))
	if err != nil {
		return "", err
	}

	if move {
		err = moveFile(filePath, dest)
	} else {
		err = copyFile(filePath, dest)
	}
	if err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", filepath.Base(filePath), err)
	}
	return dest, nil
}

// freeName returns dir/name, or dir/name_N.ext for the first N not taken.
func freeName(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for n := 1; ; n++ {
		path := filepath.Join(dir, candidate)
		_, err := os.Lstat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check archive name: %w", err)
		}
		candidate = stem + "_" + strconv.Itoa(n) + ext
	}
}

// moveFile renames src to dst, copying across devices when rename fails.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateOutputFileName expands the placeholders of an output name format.
//
// Placeholders:
//   - {uuid}, {timestamp} (20060102_150405), {date}, {time}
//   - any key of params, e.g. {partner} or {batch}
//
// Unknown placeholders are left as they are. The result always ends in ".xml".
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()
	pairs := []string{
		"{uuid}", uuid.NewString(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
	}
	for key, value := range params {
		pairs = append(pairs, "{"+key+"}", sanitizeName(value))
	}

	name := strings.NewReplacer(pairs...).Replace(format)
	if !strings.EqualFold(filepath.Ext(name), ".xml") {
		name += ".xml"
	}
	return name
}

// sanitizeName keeps parameter values from escaping the output directory.
func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, s)
}
