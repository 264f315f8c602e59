package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/x12-decoder/internal/schema"
)

type label string

func (l label) ContextLabel() string { return string(l) }

func testSegment() *schema.Segment {
	return &schema.Segment{ID: "CLM", Version: schema.Version4010, Elements: []schema.Element{
		{Position: 1, ID: "1028", Name: "Claim Submitter Identifier", Type: schema.TypeString, MinLength: 1, MaxLength: 10, Requirement: schema.Mandatory},
		{Position: 2, ID: "782", Name: "Monetary Amount", Type: schema.TypeDecimal, MinLength: 1, MaxLength: 18, Requirement: schema.Mandatory},
		{Position: 3, ID: "380", Name: "Quantity", Type: schema.TypeNumeric, Precision: 2, MinLength: 1, MaxLength: 5, Requirement: schema.Optional},
		{Position: 4, ID: "373", Name: "Date", Type: schema.TypeDate, MinLength: 8, MaxLength: 8, Requirement: schema.Optional},
		{Position: 5, ID: "337", Name: "Time", Type: schema.TypeTime, MinLength: 4, MaxLength: 8, Requirement: schema.Optional},
		{Position: 6, ID: "1073", Name: "Yes/No", Type: schema.TypeIdentifier, MinLength: 1, MaxLength: 1, Requirement: schema.Mandatory},
	}}
}

func TestDecode_TypedValues(t *testing.T) {
	p := Decode(testSegment(), []string{"CLM", "A37", "500.25", "12345", "20030101", "1253", "Y"}, label("transaction 837/0001"))

	assert.Equal(t, "CLM", p.Tag)
	assert.Equal(t, schema.Version4010, p.Version)
	assert.Empty(t, p.Issues)
	require.Len(t, p.Fields, 6)

	assert.Equal(t, "A37", p.Fields[0].Value)
	assert.Equal(t, "Claim Submitter Identifier", p.Fields[0].Name)
	assert.Equal(t, 500.25, p.Fields[1].Value)
	assert.InDelta(t, 123.45, p.Fields[2].Value, 1e-9)
	assert.Equal(t, time.Date(2003, 1, 1, 0, 0, 0, 0, time.UTC), p.Fields[3].Value)
	assert.Equal(t, "Y", p.Fields[5].Value)
	assert.Equal(t, "500.25", p.Raw(2))
}

func TestDecode_Issues(t *testing.T) {
	tests := []struct {
		name     string
		elements []string
		rules    []string
	}{
		{"empty mandatory", []string{"CLM", "", "1", "", "", "", "Y"}, []string{"required"}},
		{"truncated segment", []string{"CLM", "A37"}, []string{"required", "required"}},
		{"bad decimal", []string{"CLM", "A37", "1e5", "", "", "", "Y"}, []string{"data_type"}},
		{"bad date", []string{"CLM", "A37", "1", "", "20031301", "", "Y"}, []string{"data_type"}},
		{"too long", []string{"CLM", "ABCDEFGHIJK", "1", "", "", "", "Y"}, []string{"max_length"}},
		{"numeric length ignores sign", []string{"CLM", "A37", "-1.5", "", "", "", "Y"}, nil},
		{"surplus", []string{"CLM", "A37", "1", "", "", "", "Y", "EXTRA"}, []string{"surplus"}},
		{"empty surplus is fine", []string{"CLM", "A37", "1", "", "", "", "Y", ""}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Decode(testSegment(), tt.elements, label("ctx"))
			var rules []string
			for _, is := range p.Issues {
				rules = append(rules, is.Rule)
				assert.Contains(t, is.Message, "ctx: ")
			}
			assert.Equal(t, tt.rules, rules)
			assert.Len(t, p.Fields, len(tt.elements)-1)
		})
	}
}

func TestDecode_NilSchema(t *testing.T) {
	p := Decode(nil, []string{"ZZZ", "a", ""}, nil)
	assert.Equal(t, "ZZZ", p.Tag)
	assert.Empty(t, p.Version)
	require.Len(t, p.Fields, 2)
	assert.Equal(t, "a", p.Fields[0].Value)
	assert.Nil(t, p.Fields[1].Value)
}

func TestDecode_SurplusMessages(t *testing.T) {
	seg := &schema.Segment{ID: "REF", Version: schema.Version4010, Elements: []schema.Element{
		{Position: 1, ID: "128", Type: schema.TypeIdentifier},
		{Position: 3, ID: "352", Type: schema.TypeString},
	}}

	p := Decode(seg, []string{"REF", "EI", "gap", "desc", "past"}, nil)
	require.Len(t, p.Issues, 2)
	assert.Equal(t, 2, p.Issues[0].Position)
	assert.Contains(t, p.Issues[0].Message, "REF has no element defined at position 2")
	assert.Equal(t, 4, p.Issues[1].Position)
	assert.Contains(t, p.Issues[1].Message, "REF defines 3 elements, found a value at position 4")
}

func TestConvert(t *testing.T) {
	t.Run("integer", func(t *testing.T) {
		v, msg := convert("42", schema.Element{Type: schema.TypeNumeric})
		assert.Empty(t, msg)
		assert.Equal(t, int64(42), v)
	})
	t.Run("not an integer", func(t *testing.T) {
		v, msg := convert("4.2", schema.Element{Type: schema.TypeNumeric})
		assert.NotEmpty(t, msg)
		assert.Equal(t, "4.2", v)
	})
	t.Run("short date", func(t *testing.T) {
		v, msg := convert("030101", schema.Element{Type: schema.TypeDate})
		assert.Empty(t, msg)
		assert.Equal(t, 2003, v.(time.Time).Year())
	})
	t.Run("time with seconds", func(t *testing.T) {
		v, msg := convert("125301", schema.Element{Type: schema.TypeTime})
		assert.Empty(t, msg)
		assert.Equal(t, 1, v.(time.Time).Second())
	})
	t.Run("time with fraction", func(t *testing.T) {
		_, msg := convert("12530125", schema.Element{Type: schema.TypeTime})
		assert.Empty(t, msg)
	})
	t.Run("bad time", func(t *testing.T) {
		_, msg := convert("2561", schema.Element{Type: schema.TypeTime})
		assert.Contains(t, msg, "not a valid time")
	})
	t.Run("identifier is trimmed", func(t *testing.T) {
		v, _ := convert(" ZZ ", schema.Element{Type: schema.TypeIdentifier})
		assert.Equal(t, "ZZ", v)
	})
}
