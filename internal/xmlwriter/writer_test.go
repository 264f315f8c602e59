package xmlwriter

import (
	"encoding/xml"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/x12-decoder/internal/schema"
	"github.com/ginjaninja78/x12-decoder/internal/types"
	"github.com/ginjaninja78/x12-decoder/internal/x12"
)

func decodedBatch(t *testing.T) *x12.Batch {
	t.Helper()
	isa := fmt.Sprintf("ISA*00*%-10s*00*%-10s*ZZ*%-15s*ZZ*%-15s*030101*1253*U*00401*000000001*0*T*:",
		"", "", "SENDER", "RECEIVER")
	text := strings.Join([]string{
		isa,
		"GS*PO*SENDER*RECEIVER*20030101*1253*1*X*004010",
		"ST*850*0001",
		"BEG*00*SA*PO-1&2**20030101",
		"N1*ST*ACME <WEST>",
		"PO1*1*10*EA*9.95",
		"SE*5*0002",
		"GE*1*1",
		"IEA*1*000000001",
	}, "~\n") + "~\n"

	batch := x12.NewBatch()
	d := x12.NewDecoder(schema.NewResolver(schema.NewBuiltinRegistry(), ""))
	require.NoError(t, d.Decode(text, batch))
	batch.Warnings = append(batch.Warnings, "unterminated envelope at end of input: idle")
	return batch
}

// node is a minimal generic tree for asserting on generated documents.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func (n node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n node) find(name string) []node {
	var out []node
	for _, c := range n.Children {
		if c.XMLName.Local == name {
			out = append(out, c)
		}
	}
	return out
}

func TestGenerate(t *testing.T) {
	batch := decodedBatch(t)
	out, err := Generate(batch)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), `<?xml version="1.0" encoding="UTF-8"?>`))

	var root node
	require.NoError(t, xml.Unmarshal(out, &root))
	assert.Equal(t, "X12Batch", root.XMLName.Local)
	assert.Equal(t, batch.ID, root.attr("id"))

	ics := root.find("Interchange")
	require.Len(t, ics, 1)
	ic := ics[0]
	assert.Equal(t, "000000001", ic.attr("control"))
	assert.Equal(t, "SENDER", ic.attr("sender"))

	seps := ic.find("Separators")
	require.Len(t, seps, 1)
	assert.Equal(t, "~\n", seps[0].attr("segment"))

	tx := ic.find("Group")[0].find("Transaction")[0]
	assert.Equal(t, "850", tx.attr("code"))
	assert.Equal(t, "Purchase Order", tx.attr("name"))

	body := tx.find("Body")[0]
	beg := body.find("Segment")[0]
	assert.Equal(t, "BEG", beg.attr("tag"))
	assert.Equal(t, "2", beg.attr("seq"))
	var po string
	var date string
	for _, e := range beg.find("Element") {
		switch e.attr("pos") {
		case "3":
			po = e.Text
		case "5":
			date = e.Text
		}
	}
	assert.Equal(t, "PO-1&2", po)
	assert.Equal(t, "2003-01-01", date)

	loops := body.find("Loop")
	require.Len(t, loops, 2)
	assert.Equal(t, "N1", loops[0].attr("id"))
	assert.Equal(t, "ACME <WEST>", loops[0].find("Segment")[0].find("Element")[1].Text)

	verrs := tx.find("ValidationError")
	require.Len(t, verrs, 1)
	assert.Equal(t, "SE", verrs[0].attr("segment"))
	assert.Contains(t, verrs[0].Text, "control number mismatch")

	warnings := root.find("Warning")
	require.Len(t, warnings, 1)
}

func TestGenerateWithOptions(t *testing.T) {
	batch := decodedBatch(t)
	opts := DefaultGenerateOptions()
	opts.IncludeXMLDeclaration = false
	opts.RootElement = "Claims"
	opts.RootAttributes = map[string]string{"xmlns": "urn:x12", "b": "2"}
	opts.IncludeRaw = true

	out, err := GenerateWithOptions(batch, opts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), `<Claims id="`+batch.ID+`" b="2" xmlns="urn:x12">`))
	assert.Contains(t, string(out), `raw="20030101"`)

	opts.RootElement = ""
	_, err = GenerateWithOptions(batch, opts)
	require.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{nil, ""},
		{int64(42), "42"},
		{123.45, "123.45"},
		{"ZZ", "ZZ"},
		{time.Date(2003, 1, 2, 0, 0, 0, 0, time.UTC), "2003-01-02"},
		{time.Date(0, 1, 1, 12, 53, 1, 0, time.UTC), "12:53:01"},
		{time.Date(0, 1, 1, 12, 53, 1, 250000000, time.UTC), "12:53:01.25"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatValue(types.Field{Value: tt.value}))
	}
}

func TestEscapeXML(t *testing.T) {
	assert.Equal(t, "a&amp;b&lt;c&gt;&quot;&apos;", escapeXML(`a&b<c>"'`))
	assert.Equal(t, "~&#xA;", escapeXML("~\n"))
	assert.Equal(t, `\x1D`, escapeXML("\x1d"))
}
