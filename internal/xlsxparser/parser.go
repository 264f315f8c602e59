// =============================================================================
// X12 Decoder - XLSX Segment Workbook Parser
// =============================================================================
//
// This module reads segment definitions from XLSX workbooks so that element
// layouts can be maintained by analysts instead of in code. Every sheet is one
// X12 version; the sheet name is the version ("004010", "005010", ...).
// Sheets whose names start with "_" are skipped (notes, lookups).
//
// WORKBOOK STRUCTURE (Expected Columns):
//
//   | A          | B            | C        | D          | E            | F         | G          | H          | I           |
//   |------------|--------------|----------|------------|--------------|-----------|------------|------------|-------------|
//   | Segment ID | Segment Name | Position | Element ID | Element Name | Data Type | Min Length | Max Length | Requirement |
//   | N1         | Name         | 1        | 98         | Entity ID    | ID        | 2          | 3          | M           |
//   | N1         | Name         | 2        | 93         | Name         | AN        | 1          | 60         | O           |
//   | CLM        | Claim        | 2        | 782        | Amount       | R         | 1          | 18         | M           |
//
// Rows of the same segment may appear in any order; the elements are sorted
// by position once the sheet is read.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/x12-decoder/internal/schema"
)

// =============================================================================
// WORKBOOK COLUMN CONFIGURATION
// =============================================================================

// Columns defines which columns of a sheet hold which data.
// Column indices are 0-based (A=0, B=1, C=2, etc.)
type Columns struct {
	SegmentID   int
	SegmentName int
	Position    int
	ElementID   int
	ElementName int
	DataType    int
	MinLength   int
	MaxLength   int
	Requirement int

	// DataStartRow is the row where data begins (0-based).
	// Default: 1 (Row 2, below the header row)
	DataStartRow int
}

// DefaultColumns returns the default column layout.
func DefaultColumns() Columns {
	return Columns{
		SegmentID:    0, // Column A
		SegmentName:  1, // Column B
		Position:     2, // Column C
		ElementID:    3, // Column D
		ElementName:  4, // Column E
		DataType:     5, // Column F
		MinLength:    6, // Column G
		MaxLength:    7, // Column H
		Requirement:  8, // Column I
		DataStartRow: 1, // Row 2
	}
}

// headers are written by Export, in DefaultColumns order.
var headers = []string{
	"Segment ID", "Segment Name", "Position", "Element ID", "Element Name",
	"Data Type", "Min Length", "Max Length", "Requirement",
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads every version sheet of a workbook.
//
// PARAMETERS:
//   - path: The path to the XLSX workbook.
//
// RETURNS:
//   - The segment definitions of all sheets, each stamped with its version.
//   - An error if the file cannot be opened or a row is invalid.
func Parse(path string) ([]*schema.Segment, error) {
	return ParseWithColumns(path, DefaultColumns())
}

// ParseWithColumns reads a workbook using a custom column layout.
func ParseWithColumns(path string, columns Columns) ([]*schema.Segment, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var segments []*schema.Segment
	for _, sheetName := range f.GetSheetList() {
		if strings.HasPrefix(sheetName, "_") {
			continue
		}

		segs, err := parseSheet(f, sheetName, columns)
		if err != nil {
			return nil, fmt.Errorf("error parsing sheet '%s': %w", sheetName, err)
		}
		segments = append(segments, segs...)
	}

	return segments, nil
}

// parseSheet reads one version sheet.
func parseSheet(f *excelize.File, sheetName string, columns Columns) ([]*schema.Segment, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	version := strings.TrimSpace(sheetName)
	byID := make(map[string]*schema.Segment)
	var order []string

	for i := columns.DataStartRow; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || isRowEmpty(row) {
			continue
		}

		segID, segName, element, err := parseRow(row, columns)
		if err != nil {
			return nil, fmt.Errorf("error parsing row %d: %w", i+1, err)
		}
		// Rows without a segment id are continuation notes.
		if segID == "" {
			continue
		}

		seg, ok := byID[segID]
		if !ok {
			seg = &schema.Segment{ID: segID, Name: segName, Version: version}
			byID[segID] = seg
			order = append(order, segID)
		}
		if _, dup := seg.Element(element.Position); dup {
			return nil, fmt.Errorf("row %d: %s position %d defined twice", i+1, segID, element.Position)
		}
		seg.Elements = append(seg.Elements, element)
	}

	out := make([]*schema.Segment, 0, len(order))
	for _, id := range order {
		seg := byID[id]
		sort.Slice(seg.Elements, func(a, b int) bool {
			return seg.Elements[a].Position < seg.Elements[b].Position
		})
		out = append(out, seg)
	}
	return out, nil
}

// parseRow extracts one element definition from a row.
func parseRow(row []string, columns Columns) (string, string, schema.Element, error) {
	getCell := func(index int) string {
		if index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	segID := strings.ToUpper(getCell(columns.SegmentID))
	if segID == "" {
		return "", "", schema.Element{}, nil
	}

	position, err := strconv.Atoi(getCell(columns.Position))
	if err != nil || position < 1 {
		return "", "", schema.Element{}, fmt.Errorf("invalid position %q", getCell(columns.Position))
	}

	dataType, precision, err := schema.ParseDataType(getCell(columns.DataType))
	if err != nil {
		return "", "", schema.Element{}, err
	}

	element := schema.Element{
		Position:    position,
		ID:          getCell(columns.ElementID),
		Name:        getCell(columns.ElementName),
		Type:        dataType,
		Precision:   precision,
		MinLength:   parseLength(getCell(columns.MinLength)),
		MaxLength:   parseLength(getCell(columns.MaxLength)),
		Requirement: schema.ParseRequirement(getCell(columns.Requirement)),
	}
	if element.MaxLength > 0 && element.MinLength > element.MaxLength {
		return "", "", schema.Element{}, fmt.Errorf("%s%02d min length %d exceeds max length %d",
			segID, position, element.MinLength, element.MaxLength)
	}

	return segID, getCell(columns.SegmentName), element, nil
}

// parseLength treats blank or unparseable lengths as "no limit".
func parseLength(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// DIRECTORY LOADING
// =============================================================================

// LoadDir parses every *.xlsx workbook in dir and registers its segments.
// Workbooks are read in name order and later definitions win. Office lock
// files ("~$...") are ignored.
//
// RETURNS:
//   - The number of segment definitions registered.
//   - An error naming the first workbook that failed.
func LoadDir(dir string, registry *schema.Registry) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.xlsx"))
	if err != nil {
		return 0, fmt.Errorf("failed to list workbooks: %w", err)
	}
	sort.Strings(files)

	count := 0
	for _, file := range files {
		if strings.HasPrefix(filepath.Base(file), "~$") {
			continue
		}
		segs, err := Parse(file)
		if err != nil {
			return count, fmt.Errorf("failed to load %s: %w", file, err)
		}
		for _, seg := range segs {
			if err := registry.RegisterSegment(seg); err != nil {
				return count, fmt.Errorf("failed to register %s from %s: %w", seg.ID, file, err)
			}
			count++
		}
	}
	return count, nil
}

// =============================================================================
// EXPORT
// =============================================================================

// Export writes the segment definitions held by registry into a workbook in
// the layout Parse reads, one sheet per version. It is the starting point for
// maintaining custom definitions.
func Export(registry *schema.Registry, path string) error {
	versions := registry.Versions()
	if len(versions) == 0 {
		return fmt.Errorf("registry holds no segment definitions")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, version := range versions {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), version); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", version, err)
			}
		} else if _, err := f.NewSheet(version); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", version, err)
		}

		if err := f.SetSheetRow(version, "A1", &headers); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}

		row := 2
		for _, id := range registry.Segments(version) {
			seg, _ := registry.LookupSegment(version, id)
			for _, e := range seg.Elements {
				cell, err := excelize.CoordinatesToCellName(1, row)
				if err != nil {
					return err
				}
				values := []any{
					seg.ID, seg.Name, e.Position, e.ID, e.Name,
					dataTypeLabel(e), e.MinLength, e.MaxLength, string(e.Requirement),
				}
				if err := f.SetSheetRow(version, cell, &values); err != nil {
					return fmt.Errorf("failed to write %s%02d: %w", seg.ID, e.Position, err)
				}
				row++
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// dataTypeLabel writes implied-decimal numerics back as "N2".
func dataTypeLabel(e schema.Element) string {
	if e.Type == schema.TypeNumeric && e.Precision > 0 {
		return "N" + strconv.Itoa(e.Precision)
	}
	return string(e.Type)
}
