package x12

import (
	"github.com/google/uuid"

	"github.com/ginjaninja78/x12-decoder/internal/types"
)

// Separators are the delimiters an interchange declares about itself.
type Separators struct {
	// Element separates elements within a segment (ISA offset 3).
	Element string
	// Segment terminates each segment, possibly followed by a line break.
	Segment string
	// Component separates sub-elements of a composite (ISA16).
	Component string
	// Repetition separates repeated elements (ISA11 from 00402 on). Empty for
	// older versions, where ISA11 is a standards identifier.
	Repetition string
}

// ValidationError is a recoverable discrepancy found when an envelope closed.
type ValidationError struct {
	// Segment is the closing segment (IEA, GE or SE) or ST for a skipped
	// transaction set.
	Segment string
	Message string
}

func (e ValidationError) Error() string { return e.Segment + ": " + e.Message }

// Batch accumulates completed interchanges across decode calls. It is not
// safe for concurrent population without external synchronization.
type Batch struct {
	// ID correlates log lines and output files for the batch.
	ID string

	Interchanges []*Interchange

	// Warnings lists envelopes that were still open at end of input and
	// were therefore dropped.
	Warnings []string
}

// NewBatch returns an empty batch with a fresh ID.
func NewBatch() *Batch {
	return &Batch{ID: uuid.NewString()}
}

// Counts returns the number of interchanges, groups and transactions held.
func (b *Batch) Counts() (interchanges, groups, transactions int) {
	for _, ic := range b.Interchanges {
		interchanges++
		for _, g := range ic.Groups {
			groups++
			transactions += len(g.Transactions)
		}
	}
	return interchanges, groups, transactions
}

// ValidationErrorCount sums the validation errors over every entity.
func (b *Batch) ValidationErrorCount() int {
	n := 0
	for _, ic := range b.Interchanges {
		n += len(ic.ValidationErrors)
		for _, g := range ic.Groups {
			n += len(g.ValidationErrors)
			for _, tx := range g.Transactions {
				n += len(tx.ValidationErrors)
			}
		}
	}
	return n
}

// Interchange is one ISA...IEA envelope.
type Interchange struct {
	Separators Separators

	// Version is the schema version derived from ISA12, e.g. "004010".
	Version string

	Header  *types.ParsedSegment
	Trailer *types.ParsedSegment

	Groups           []*Group
	ValidationErrors []ValidationError
}

// ControlNumber returns ISA13.
func (ic *Interchange) ControlNumber() string { return ic.Header.Raw(13) }

// SenderID returns ISA06.
func (ic *Interchange) SenderID() string { return ic.Header.Raw(6) }

// ReceiverID returns ISA08.
func (ic *Interchange) ReceiverID() string { return ic.Header.Raw(8) }

func (ic *Interchange) ContextLabel() string {
	return "interchange " + ic.ControlNumber()
}

// Group is one GS...GE functional group.
type Group struct {
	// Version is GS08, the version/release/industry identifier.
	Version string

	Header  *types.ParsedSegment
	Trailer *types.ParsedSegment

	Transactions []*Transaction

	// TransactionSets counts every ST seen in the group, including sets that
	// were skipped because no transaction map resolved.
	TransactionSets int

	ValidationErrors []ValidationError
}

// FunctionalID returns GS01.
func (g *Group) FunctionalID() string { return g.Header.Raw(1) }

// ControlNumber returns GS06.
func (g *Group) ControlNumber() string { return g.Header.Raw(6) }

func (g *Group) ContextLabel() string {
	return "group " + g.ControlNumber()
}

// Transaction is one ST...SE transaction set.
type Transaction struct {
	// Code is ST01, for example "837".
	Code string
	// Name is the transaction map's name.
	Name string

	Header  *types.ParsedSegment
	Trailer *types.ParsedSegment

	// Body is built by the transaction body parser.
	Body *types.Loop

	// SegmentCount counts ST, every body segment and SE.
	SegmentCount int

	ValidationErrors []ValidationError
}

// ControlNumber returns ST02.
func (tx *Transaction) ControlNumber() string { return tx.Header.Raw(2) }

func (tx *Transaction) ContextLabel() string {
	return "transaction " + tx.Code + "/" + tx.ControlNumber()
}
