package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/x12-decoder/internal/schema"
)

// buildWorkbook writes sheets of rows (header row included) to path.
func buildWorkbook(t *testing.T, path string, sheets map[string][][]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func header() []any {
	out := make([]any, len(headers))
	for i, h := range headers {
		out[i] = h
	}
	return out
}

func TestParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segments.xlsx")
	buildWorkbook(t, path, map[string][][]any{
		"004010": {
			header(),
			{"n1", "Name", 2, "93", "Name", "AN", 1, 60, "O"},
			{"N1", "Name", 1, "98", "Entity Identifier Code", "ID", 2, 3, "M"},
			{},
			{"", "note row"},
			{"QTY", "Quantity", 2, "380", "Quantity", "N2", 1, 15, "X"},
		},
		"_notes": {
			{"anything", "goes", "here"},
		},
	})

	segs, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, segs, 2)

	n1 := segs[0]
	assert.Equal(t, "N1", n1.ID)
	assert.Equal(t, "004010", n1.Version)
	require.Len(t, n1.Elements, 2)
	assert.Equal(t, 1, n1.Elements[0].Position)
	assert.Equal(t, schema.TypeIdentifier, n1.Elements[0].Type)
	assert.Equal(t, schema.Mandatory, n1.Elements[0].Requirement)
	assert.Equal(t, 60, n1.Elements[1].MaxLength)

	qty := segs[1]
	assert.Equal(t, schema.TypeNumeric, qty.Elements[0].Type)
	assert.Equal(t, 2, qty.Elements[0].Precision)
	assert.Equal(t, schema.Relational, qty.Elements[0].Requirement)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		row     []any
		message string
	}{
		{"bad position", []any{"N1", "Name", "x", "98", "Code", "ID", 2, 3, "M"}, "invalid position"},
		{"bad type", []any{"N1", "Name", 1, "98", "Code", "money", 2, 3, "M"}, "unknown data type"},
		{"min above max", []any{"N1", "Name", 1, "98", "Code", "ID", 5, 3, "M"}, "exceeds max length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.xlsx")
			buildWorkbook(t, path, map[string][][]any{"004010": {header(), tt.row}})
			_, err := Parse(path)
			require.ErrorContains(t, err, tt.message)
			assert.Contains(t, err.Error(), "row 2")
		})
	}

	t.Run("duplicate position", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dup.xlsx")
		buildWorkbook(t, path, map[string][][]any{"004010": {
			header(),
			{"N1", "Name", 1, "98", "Code", "ID", 2, 3, "M"},
			{"N1", "Name", 1, "98", "Code", "ID", 2, 3, "M"},
		}})
		_, err := Parse(path)
		require.ErrorContains(t, err, "defined twice")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Parse(filepath.Join(t.TempDir(), "none.xlsx"))
		require.ErrorContains(t, err, "failed to open workbook")
	})
}

func TestLoadDirOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	buildWorkbook(t, filepath.Join(dir, "custom.xlsx"), map[string][][]any{
		"004010": {
			header(),
			{"N1", "Custom Name", 1, "98", "Entity Identifier Code", "ID", 2, 2, "M"},
		},
	})

	reg := schema.NewBuiltinRegistry()
	n, err := LoadDir(dir, reg)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	seg, ok := reg.LookupSegment("004010", "N1")
	require.True(t, ok)
	assert.Equal(t, "Custom Name", seg.Name)
	assert.Len(t, seg.Elements, 1)
}

func TestExportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "builtin.xlsx")
	reg := schema.NewBuiltinRegistry()
	require.NoError(t, Export(reg, path))

	segs, err := Parse(path)
	require.NoError(t, err)

	restored := schema.NewRegistry()
	for _, s := range segs {
		require.NoError(t, restored.RegisterSegment(s))
	}
	for _, v := range reg.Versions() {
		assert.Equal(t, reg.Segments(v), restored.Segments(v))
	}

	want, _ := reg.LookupSegment(schema.Version5010, "ISA")
	got, ok := restored.LookupSegment(schema.Version5010, "ISA")
	require.True(t, ok)
	assert.Equal(t, want.Elements, got.Elements)
}

func TestExportEmptyRegistry(t *testing.T) {
	err := Export(schema.NewRegistry(), filepath.Join(t.TempDir(), "x.xlsx"))
	require.Error(t, err)
}
