package body

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/x12-decoder/internal/schema"
)

type label string

func (l label) ContextLabel() string { return string(l) }

func purchaseOrder() *schema.TransactionMap {
	return &schema.TransactionMap{Version: schema.Version4010, Code: "850", Name: "Purchase Order", Loops: []schema.Loop{
		{ID: "N1", Name: "Party", Trigger: "N1"},
		{ID: "PO1", Name: "Line", Trigger: "PO1"},
		{ID: "PID", Name: "Description", Trigger: "PID", Parent: "PO1"},
	}}
}

func feed(t *testing.T, p *Parser, segments ...[]string) {
	t.Helper()
	for i, seg := range segments {
		require.NoError(t, p.ProcessRawSegment(seg[0], seg, i+2))
	}
}

func TestParser_LoopStructure(t *testing.T) {
	resolver := schema.NewResolver(schema.NewBuiltinRegistry(), "")
	p := New(purchaseOrder(), label("transaction 850/0001"), resolver, schema.Version4010)

	feed(t, p,
		[]string{"BEG", "00", "SA", "PO123", "", "20030101"},
		[]string{"N1", "ST", "ACME"},
		[]string{"N3", "1 MAIN ST"},
		[]string{"N1", "BT", "ACME BILLING"},
		[]string{"PO1", "1", "10", "EA", "9.95"},
		[]string{"PID", "F", "", "", "", "WIDGET"},
		[]string{"PO1", "2", "5", "EA", "1.50"},
		[]string{"CTT", "2"},
	)

	root := p.Root()
	assert.Equal(t, "Purchase Order", root.Name)
	require.Len(t, root.Segments, 1)
	assert.Equal(t, "BEG", root.Segments[0].Tag)
	assert.Equal(t, 2, root.Segments[0].Sequence)

	require.Len(t, root.Loops, 4)
	assert.Equal(t, "N1", root.Loops[0].ID)
	assert.Len(t, root.Loops[0].Segments, 2)
	assert.Equal(t, "N1", root.Loops[1].ID)

	line1 := root.Loops[2]
	assert.Equal(t, "PO1", line1.ID)
	require.Len(t, line1.Loops, 1)
	assert.Equal(t, "PID", line1.Loops[0].ID)

	// CTT has no loop in this map, so it stays with the last open loop.
	line2 := root.Loops[3]
	require.Len(t, line2.Segments, 2)
	assert.Equal(t, "CTT", line2.Segments[1].Tag)
	assert.Equal(t, 8, root.SegmentCount())
}

func TestParser_DecodesWithSchema(t *testing.T) {
	resolver := schema.NewResolver(schema.NewBuiltinRegistry(), "")
	p := New(purchaseOrder(), label("tx"), resolver, "004010X")
	feed(t, p, []string{"N1", "ST", "ACME"})

	seg := p.Root().Loops[0].Segments[0]
	assert.Equal(t, schema.Version4010, seg.Version)
	assert.NotEmpty(t, seg.Fields[0].Name)
}

func TestParser_WithoutResolver(t *testing.T) {
	p := New(purchaseOrder(), label("tx"), nil, schema.Version4010)
	feed(t, p, []string{"ZZZ", "1", "2"})

	seg := p.Root().Segments[0]
	assert.Empty(t, seg.Version)
	assert.Equal(t, "2", seg.Raw(2))
}

func TestParser_OutOfSequence(t *testing.T) {
	p := New(purchaseOrder(), label("transaction 850/0001"), nil, schema.Version4010)
	require.NoError(t, p.ProcessRawSegment("N1", []string{"N1", "ST"}, 3))

	err := p.ProcessRawSegment("N3", []string{"N3", "MAIN"}, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction 850/0001")
	assert.Contains(t, err.Error(), `"N1"`)
	assert.Equal(t, 1, p.Root().SegmentCount())
}
