// =============================================================================
// X12 Decoder - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - x12 (the envelope engine)
//   - segment (the schema-driven field decoder)
//   - body (the transaction body parser)
//   - xmlwriter
//
// =============================================================================

package types

import (
	"strconv"
	"strings"
)

// =============================================================================
// ENTITY CONTEXT
// =============================================================================

// Context identifies the entity a segment is being decoded for. It is a
// back-reference used for labelling and logging only; the decoder never takes
// ownership of it.
type Context interface {
	// ContextLabel returns a short human-readable label such as
	// "interchange 000000001" or "transaction 837/0001".
	ContextLabel() string
}

// =============================================================================
// PARSED SEGMENT TYPES
// =============================================================================

// ParsedSegment is the result of decoding a raw segment against a schema.
type ParsedSegment struct {
	// Tag is the segment identifier (ISA, GS, NM1, ...).
	Tag string

	// Version is the schema version the segment was decoded with. This may be
	// the fallback version when the requested one was unavailable.
	Version string

	// Sequence is the 1-based position of the segment inside its transaction.
	// Envelope segments leave it at zero.
	Sequence int

	// Fields holds one entry per element present in the raw segment, in
	// element order. Position 1 is the first element after the tag.
	Fields []Field

	// Issues lists field-level problems found while decoding. They never
	// abort a decode.
	Issues []FieldIssue
}

// Raw returns the raw value of the element at the given 1-based position, or
// the empty string when the segment is shorter than that.
func (p *ParsedSegment) Raw(position int) string {
	if p == nil || position < 1 || position > len(p.Fields) {
		return ""
	}
	return p.Fields[position-1].Raw
}

// Field is one decoded element.
type Field struct {
	// Position is the 1-based element position within the segment.
	Position int

	// ID is the data element reference (for example "I01" or "28").
	ID string

	// Name is the element's descriptive name from the schema.
	Name string

	// Raw is the element text exactly as it appeared in the file.
	Raw string

	// Value is the typed value: int64, float64, time.Time or string.
	// Nil when Raw is empty.
	Value any
}

// FieldIssue describes a single field-level problem.
type FieldIssue struct {
	Position int
	Rule     string
	Message  string
}

// String formats the issue for logs and reports.
func (i FieldIssue) String() string {
	return i.Rule + " @" + strconv.Itoa(i.Position) + ": " + i.Message
}

// =============================================================================
// TRANSACTION BODY TYPES
// =============================================================================

// Loop is one instance of a repeating structure inside a transaction body.
// The root loop of a transaction has an empty ID.
type Loop struct {
	ID       string
	Name     string
	Segments []ParsedSegment
	Loops    []*Loop
}

// SegmentCount returns the number of segments in the loop and all of its
// descendants.
func (l *Loop) SegmentCount() int {
	if l == nil {
		return 0
	}
	n := len(l.Segments)
	for _, child := range l.Loops {
		n += child.SegmentCount()
	}
	return n
}

// Path renders the loop ids from the root down to l, for logs.
func Path(loops []*Loop) string {
	ids := make([]string, 0, len(loops))
	for _, l := range loops {
		if l.ID != "" {
			ids = append(ids, l.ID)
		}
	}
	return strings.Join(ids, "/")
}
