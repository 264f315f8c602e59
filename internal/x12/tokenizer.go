package x12

import (
	"iter"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// DELIMITER SNIFFING
// =============================================================================

const (
	// isaTag must open every interchange payload.
	isaTag = "ISA"

	// elementSeparatorOffset is where ISA's element separator sits.
	elementSeparatorOffset = 3

	// segmentTerminatorOffset is the first byte after the fixed-width ISA.
	segmentTerminatorOffset = 105
)

// SniffSeparators discovers the element and segment separators declared by
// the payload itself.
//
// The element separator is the character right after "ISA". ISA is fixed
// width, so the segment terminator is whatever lies between offset 105 and
// the first "GS" followed by the element separator.
func SniffSeparators(text string) (Separators, error) {
	if strings.TrimSpace(text) == "" {
		return Separators{}, formatError("Empty File")
	}
	if !strings.HasPrefix(text, isaTag) || len(text) <= elementSeparatorOffset {
		return Separators{}, formatError("ISA not found")
	}
	if text[elementSeparatorOffset] >= utf8.RuneSelf {
		return Separators{}, formatError("element separator after ISA is not a single ASCII character")
	}
	elem := text[elementSeparatorOffset : elementSeparatorOffset+1]

	if len(text) <= segmentTerminatorOffset {
		return Separators{}, formatError("ISA segment truncated before segment terminator")
	}
	gs := strings.Index(text[segmentTerminatorOffset:], "GS"+elem)
	if gs < 0 {
		return Separators{}, formatError("GS not found; cannot locate segment terminator")
	}
	if gs == 0 {
		return Separators{}, formatError("empty segment terminator before GS")
	}

	return Separators{
		Element: elem,
		Segment: text[segmentTerminatorOffset : segmentTerminatorOffset+gs],
	}, nil
}

// =============================================================================
// TOKENIZER
// =============================================================================

// RawSegment is one tokenized segment. Elements[0] is the tag.
type RawSegment struct {
	// Index is the 1-based position of the segment in the payload.
	Index    int
	Elements []string
}

// Tag returns the segment identifier.
func (r RawSegment) Tag() string {
	if len(r.Elements) == 0 {
		return ""
	}
	return r.Elements[0]
}

// Tokenizer splits a payload into segments lazily. It is finite and not
// rewindable; build a new one to start again.
//
// USAGE:
//
//	tok := NewTokenizer(text, sep)
//	for tok.Next() {
//	    seg := tok.Segment()
//	    // dispatch seg...
//	}
type Tokenizer struct {
	text    string
	sep     Separators
	pos     int
	index   int
	current RawSegment
}

// NewTokenizer returns a tokenizer over text.
func NewTokenizer(text string, sep Separators) *Tokenizer {
	return &Tokenizer{text: text, sep: sep}
}

// Next advances to the next non-empty segment. Returns false at end of input.
func (t *Tokenizer) Next() bool {
	for t.pos < len(t.text) {
		var frag string
		end := strings.Index(t.text[t.pos:], t.sep.Segment)
		if end < 0 {
			frag = t.text[t.pos:]
			t.pos = len(t.text)
			frag = t.trimFinal(frag)
		} else {
			frag = t.text[t.pos : t.pos+end]
			t.pos += end + len(t.sep.Segment)
		}

		// Blank lines and trailing terminators produce empty fragments.
		frag = strings.Trim(frag, "\r\n")
		if strings.TrimSpace(frag) == "" {
			continue
		}

		t.index++
		t.current = RawSegment{
			Index:    t.index,
			Elements: strings.Split(frag, t.sep.Element),
		}
		return true
	}
	return false
}

// Segment returns the segment produced by the last successful Next.
func (t *Tokenizer) Segment() RawSegment {
	return t.current
}

// All yields the remaining segments.
func (t *Tokenizer) All() iter.Seq[RawSegment] {
	return func(yield func(RawSegment) bool) {
		for t.Next() {
			if !yield(t.current) {
				return
			}
		}
	}
}

// trimFinal strips a terminator whose trailing line break is missing on the
// last segment, e.g. terminator "~\n" but the file ends in "~".
func (t *Tokenizer) trimFinal(frag string) string {
	core := strings.TrimRight(t.sep.Segment, "\r\n")
	if core == "" || core == t.sep.Segment {
		return frag
	}
	return strings.TrimSuffix(strings.TrimRight(frag, "\r\n"), core)
}

// Tokenize splits the whole payload eagerly.
func Tokenize(text string, sep Separators) []RawSegment {
	var out []RawSegment
	for seg := range NewTokenizer(text, sep).All() {
		out = append(out, seg)
	}
	return out
}
