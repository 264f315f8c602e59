// Package body builds the loop structure of one transaction set from the
// segments between its ST and SE.
//
// A segment whose tag triggers a loop nested under the current loop, or under
// one of its ancestors, closes everything below that ancestor and opens a new
// loop instance there. Any other segment is appended to the current loop.
package body

import (
	"fmt"

	"github.com/ginjaninja78/x12-decoder/internal/schema"
	"github.com/ginjaninja78/x12-decoder/internal/segment"
	"github.com/ginjaninja78/x12-decoder/internal/types"
)

// SegmentResolver is the subset of schema.Resolver the parser needs.
type SegmentResolver interface {
	ResolveSegment(name, version string) (*schema.Segment, error)
}

// Parser accumulates the body of a single transaction. It is not safe for
// concurrent use.
type Parser struct {
	tmap     *schema.TransactionMap
	ctx      types.Context
	resolver SegmentResolver
	version  string

	root  *types.Loop
	stack []*types.Loop
	last  int
}

// New returns a parser for one transaction. resolver may be nil, in which case
// body segments are kept as raw strings.
func New(tmap *schema.TransactionMap, ctx types.Context, resolver SegmentResolver, version string) *Parser {
	root := &types.Loop{Name: tmap.Name}
	return &Parser{
		tmap:     tmap,
		ctx:      ctx,
		resolver: resolver,
		version:  version,
		root:     root,
		stack:    []*types.Loop{root},
	}
}

// ProcessRawSegment adds one body segment. seq is the 1-based running
// sequence number of the segment inside the transaction. Field-level problems
// stay on the decoded segment; only sequencing faults are returned.
func (p *Parser) ProcessRawSegment(tag string, elements []string, seq int) error {
	if seq <= p.last {
		return fmt.Errorf("%s: segment %s out of sequence (%d after %d) in loop %q",
			p.ctx.ContextLabel(), tag, seq, p.last, types.Path(p.stack))
	}
	p.last = seq

	parsed := p.decode(tag, elements)
	parsed.Sequence = seq

	if loop, depth, ok := p.findTrigger(tag); ok {
		p.stack = p.stack[:depth+1]
		parent := p.stack[depth]
		child := &types.Loop{ID: loop.ID, Name: loop.Name}
		parent.Loops = append(parent.Loops, child)
		p.stack = append(p.stack, child)
	}

	current := p.stack[len(p.stack)-1]
	current.Segments = append(current.Segments, parsed)
	return nil
}

// Root returns the transaction's body.
func (p *Parser) Root() *types.Loop {
	return p.root
}

// findTrigger walks from the current loop up to the root looking for a child
// loop opened by tag. It returns the loop definition and the stack depth of
// the parent the new instance belongs to.
func (p *Parser) findTrigger(tag string) (schema.Loop, int, bool) {
	for depth := len(p.stack) - 1; depth >= 0; depth-- {
		if loop, ok := p.tmap.ChildLoop(p.stack[depth].ID, tag); ok {
			return loop, depth, true
		}
	}
	return schema.Loop{}, 0, false
}

func (p *Parser) decode(tag string, elements []string) types.ParsedSegment {
	if p.resolver == nil {
		return segment.DecodeRaw(elements)
	}
	seg, err := p.resolver.ResolveSegment(tag, p.version)
	if err != nil {
		return segment.DecodeRaw(elements)
	}
	return segment.Decode(seg, elements, p.ctx)
}
