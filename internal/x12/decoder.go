// =============================================================================
// X12 Decoder - Envelope Engine
// =============================================================================
//
// This module walks a tokenized X12 payload and builds the envelope model:
//
//   Batch
//   └── Interchange   (ISA ... IEA)
//       └── Group     (GS ... GE)
//           └── Transaction (ST ... SE)
//               └── body loops and segments (body parser)
//
// STATE MACHINE:
//   | Tag   | Required state       | New state      |
//   |-------|----------------------|----------------|
//   | ISA   | idle (see strict)    | inInterchange  |
//   | GS    | inInterchange        | inGroup        |
//   | ST    | inGroup              | inTransaction, or skipping when no map |
//   | SE    | inTransaction/skip   | inGroup        |
//   | GE    | inGroup              | inInterchange  |
//   | IEA   | inInterchange        | idle           |
//   | other | inTransaction        | unchanged (forwarded to body parser) |
//   | other | any other state      | unchanged (ignored) |
//
// ERRORS:
//   - Out-of-order envelope segments and missing envelope schemas abort the
//     decode with a *ParsingError.
//   - Count and control-number mismatches are recorded as ValidationErrors
//     and the decode continues.
//
// =============================================================================

package x12

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ginjaninja78/x12-decoder/internal/body"
	"github.com/ginjaninja78/x12-decoder/internal/schema"
	"github.com/ginjaninja78/x12-decoder/internal/segment"
	"github.com/ginjaninja78/x12-decoder/internal/types"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// SegmentDecoder turns the raw elements of an envelope segment into fields.
type SegmentDecoder func(seg *schema.Segment, elements []string, ctx types.Context) types.ParsedSegment

// BodyParser accumulates the body segments of one transaction.
type BodyParser interface {
	ProcessRawSegment(tag string, elements []string, seq int) error
	Root() *types.Loop
}

// BodyParserFactory creates the body parser for a newly opened transaction.
type BodyParserFactory func(tmap *schema.TransactionMap, tx *Transaction, version string) BodyParser

// =============================================================================
// DECODER
// =============================================================================

// Decoder decodes X12 payloads into a Batch. A Decoder holds per-call state
// and must not be shared between concurrent Decode calls; build one per
// goroutine.
type Decoder struct {
	resolver         *schema.Resolver
	decodeSegment    SegmentDecoder
	newBody          BodyParserFactory
	strict           bool
	warnUnterminated bool
	logger           *slog.Logger

	// per-call state
	sep   Separators
	state state
	batch *Batch
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithStrictInterchanges makes an ISA that arrives while an interchange is
// still open a fatal error instead of a reset.
func WithStrictInterchanges(strict bool) Option {
	return func(d *Decoder) { d.strict = strict }
}

// WithWarnUnterminated controls the end-of-input warning for envelopes that
// never saw their closing segment.
func WithWarnUnterminated(warn bool) Option {
	return func(d *Decoder) { d.warnUnterminated = warn }
}

// WithSegmentDecoder replaces the envelope field decoder.
func WithSegmentDecoder(fn SegmentDecoder) Option {
	return func(d *Decoder) {
		if fn != nil {
			d.decodeSegment = fn
		}
	}
}

// WithBodyParserFactory replaces the transaction body parser.
func WithBodyParserFactory(fn BodyParserFactory) Option {
	return func(d *Decoder) {
		if fn != nil {
			d.newBody = fn
		}
	}
}

// NewDecoder returns a decoder that resolves schemas through resolver.
func NewDecoder(resolver *schema.Resolver, opts ...Option) *Decoder {
	d := &Decoder{
		resolver:         resolver,
		decodeSegment:    segment.Decode,
		warnUnterminated: true,
		logger:           slog.New(slog.DiscardHandler),
		state:            idle{},
	}
	d.newBody = func(tmap *schema.TransactionMap, tx *Transaction, version string) BodyParser {
		return body.New(tmap, tx, d.resolver, version)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DecodeReader reads r fully and decodes it into batch.
func (d *Decoder) DecodeReader(r io.Reader, batch *Batch) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}
	return d.Decode(string(data), batch)
}

// Decode decodes one payload, which may hold several concatenated
// interchanges, and appends every completed interchange to batch.
//
// RETURNS:
//   - nil when the payload was walked to the end. Recoverable problems are on
//     the entities' ValidationErrors and in batch.Warnings.
//   - a *ParsingError on a fatal fault. Interchanges closed before the fault
//     stay in batch.
func (d *Decoder) Decode(text string, batch *Batch) error {
	sep, err := SniffSeparators(text)
	if err != nil {
		return err
	}
	d.sep = sep
	d.batch = batch
	d.state = idle{}
	d.logger.Debug("separators discovered",
		"batch", batch.ID, "element", sep.Element, "segment", fmt.Sprintf("%q", sep.Segment))

	tok := NewTokenizer(text, sep)
	for tok.Next() {
		if err := d.step(tok.Segment()); err != nil {
			d.state = idle{}
			return err
		}
	}
	d.finish()
	return nil
}

func (d *Decoder) step(raw RawSegment) error {
	switch raw.Tag() {
	case "ISA":
		return d.openInterchange(raw)
	case "IEA":
		return d.closeInterchange(raw)
	case "GS":
		return d.openGroup(raw)
	case "GE":
		return d.closeGroup(raw)
	case "ST":
		return d.openTransaction(raw)
	case "SE":
		return d.closeTransaction(raw)
	default:
		d.bodySegment(raw)
		return nil
	}
}

// =============================================================================
// INTERCHANGE
// =============================================================================

func (d *Decoder) openInterchange(raw RawSegment) error {
	if _, ok := d.state.(idle); !ok {
		if d.strict {
			return malformed(raw, "ISA encountered while %s is still open", d.state.describe())
		}
		msg := fmt.Sprintf("ISA at segment %d re-opened the interchange; dropped unclosed %s", raw.Index, d.state.describe())
		d.batch.Warnings = append(d.batch.Warnings, msg)
		d.logger.Warn("interchange reset", "batch", d.batch.ID, "detail", msg)
	}

	version := interchangeVersion(raw)
	seg, err := d.resolver.ResolveSegment("ISA", version)
	if err != nil {
		return schemaMissing(raw, err)
	}

	sep := d.sep
	if len(raw.Elements) > 16 {
		sep.Component = raw.Elements[16]
	}
	if len(raw.Elements) > 12 && raw.Elements[12] >= "00402" && len(raw.Elements[11]) == 1 && !isAlphaNumeric(raw.Elements[11]) {
		sep.Repetition = raw.Elements[11]
	}

	ic := &Interchange{Separators: sep, Version: version}
	ic.Header = d.decodeHeader(seg, raw, &ic.Header, ic)
	d.state = inInterchange{ic: ic}
	d.logger.Debug("interchange opened", "batch", d.batch.ID, "control", ic.ControlNumber(), "version", version)
	return nil
}

func (d *Decoder) closeInterchange(raw RawSegment) error {
	st, ok := d.state.(inInterchange)
	if !ok {
		return malformed(raw, "IEA encountered in state %s; expected an open interchange with no open group", d.state.describe())
	}
	seg, err := d.resolver.ResolveSegment("IEA", st.ic.Version)
	if err != nil {
		return schemaMissing(raw, err)
	}
	trailer := d.decodeSegment(seg, raw.Elements, st.ic)
	st.ic.Trailer = &trailer

	errs := ValidateInterchange(st.ic)
	st.ic.ValidationErrors = append(st.ic.ValidationErrors, errs...)
	d.logValidation(st.ic, errs)

	d.batch.Interchanges = append(d.batch.Interchanges, st.ic)
	d.state = idle{}
	d.logger.Debug("interchange closed", "batch", d.batch.ID, "control", st.ic.ControlNumber(), "groups", len(st.ic.Groups))
	return nil
}

// decodeHeader decodes an opening segment. The raw elements are put in place
// first so that issue labels carry the entity's control number.
func (d *Decoder) decodeHeader(seg *schema.Segment, raw RawSegment, slot **types.ParsedSegment, ctx types.Context) *types.ParsedSegment {
	plain := segment.DecodeRaw(raw.Elements)
	*slot = &plain
	header := d.decodeSegment(seg, raw.Elements, ctx)
	return &header
}

// =============================================================================
// FUNCTIONAL GROUP
// =============================================================================

func (d *Decoder) openGroup(raw RawSegment) error {
	st, ok := d.state.(inInterchange)
	if !ok {
		return malformed(raw, "GS encountered in state %s; expected an open interchange with no open group", d.state.describe())
	}
	version := element(raw, 8)
	seg, err := d.resolver.ResolveSegment("GS", version)
	if err != nil {
		return schemaMissing(raw, err)
	}
	g := &Group{Version: version}
	g.Header = d.decodeHeader(seg, raw, &g.Header, g)
	d.state = inGroup{ic: st.ic, group: g}
	return nil
}

func (d *Decoder) closeGroup(raw RawSegment) error {
	st, ok := d.state.(inGroup)
	if !ok {
		return malformed(raw, "GE encountered in state %s; expected an open group with no open transaction set", d.state.describe())
	}
	seg, err := d.resolver.ResolveSegment("GE", st.group.Version)
	if err != nil {
		return schemaMissing(raw, err)
	}
	trailer := d.decodeSegment(seg, raw.Elements, st.group)
	st.group.Trailer = &trailer

	errs := ValidateGroup(st.group)
	st.group.ValidationErrors = append(st.group.ValidationErrors, errs...)
	d.logValidation(st.group, errs)

	st.ic.Groups = append(st.ic.Groups, st.group)
	d.state = inInterchange{ic: st.ic}
	return nil
}

// =============================================================================
// TRANSACTION SET
// =============================================================================

func (d *Decoder) openTransaction(raw RawSegment) error {
	st, ok := d.state.(inGroup)
	if !ok {
		return malformed(raw, "ST encountered in state %s; expected an open group with no open transaction set", d.state.describe())
	}
	seg, err := d.resolver.ResolveSegment("ST", st.group.Version)
	if err != nil {
		return schemaMissing(raw, err)
	}

	tx := &Transaction{Code: element(raw, 1), SegmentCount: 1}
	tx.Header = d.decodeHeader(seg, raw, &tx.Header, tx)
	st.group.TransactionSets++

	tmap, found := d.resolver.ResolveTransaction(st.group.Version, tx.Code)
	if !found {
		ve := ValidationError{Segment: "ST", Message: fmt.Sprintf(
			"no transaction map for %s in version %q (fallback %q); transaction set %s skipped",
			tx.Code, st.group.Version, d.resolver.Fallback(), tx.ControlNumber())}
		st.group.ValidationErrors = append(st.group.ValidationErrors, ve)
		d.logger.Warn("transaction set skipped", "batch", d.batch.ID, "code", tx.Code, "control", tx.ControlNumber())
		d.state = skippingTransaction{ic: st.ic, group: st.group, tx: tx}
		return nil
	}

	tx.Name = tmap.Name
	d.state = inTransaction{
		ic:    st.ic,
		group: st.group,
		tx:    tx,
		body:  d.newBody(tmap, tx, st.group.Version),
	}
	return nil
}

func (d *Decoder) closeTransaction(raw RawSegment) error {
	switch st := d.state.(type) {
	case skippingTransaction:
		d.state = inGroup{ic: st.ic, group: st.group}
		return nil

	case inTransaction:
		st.tx.SegmentCount++
		seg, err := d.resolver.ResolveSegment("SE", st.group.Version)
		if err != nil {
			return schemaMissing(raw, err)
		}
		trailer := d.decodeSegment(seg, raw.Elements, st.tx)
		st.tx.Trailer = &trailer
		st.tx.Body = st.body.Root()

		errs := ValidateTransaction(st.tx)
		st.tx.ValidationErrors = append(st.tx.ValidationErrors, errs...)
		d.logValidation(st.tx, errs)

		st.group.Transactions = append(st.group.Transactions, st.tx)
		d.state = inGroup{ic: st.ic, group: st.group}
		return nil

	default:
		return malformed(raw, "SE encountered in state %s; expected an open transaction set", d.state.describe())
	}
}

// bodySegment forwards a data segment to the open transaction's body parser.
// Outside a transaction data segments are ignored.
func (d *Decoder) bodySegment(raw RawSegment) {
	st, ok := d.state.(inTransaction)
	if !ok {
		return
	}
	st.tx.SegmentCount++
	if err := st.body.ProcessRawSegment(raw.Tag(), raw.Elements, st.tx.SegmentCount); err != nil {
		st.tx.ValidationErrors = append(st.tx.ValidationErrors, ValidationError{Segment: raw.Tag(), Message: err.Error()})
	}
}

// =============================================================================
// END OF INPUT
// =============================================================================

// finish drops any envelope still open at end of input. The drop is kept as
// is; the warning makes truncated files visible.
func (d *Decoder) finish() {
	if _, ok := d.state.(idle); !ok && d.warnUnterminated {
		msg := "unterminated envelope at end of input: " + d.state.describe()
		d.batch.Warnings = append(d.batch.Warnings, msg)
		d.logger.Warn("unterminated envelope", "batch", d.batch.ID, "open", d.state.describe())
	}
	d.state = idle{}
}

// =============================================================================
// HELPERS
// =============================================================================

// interchangeVersion builds the schema version from ISA12: "00401" -> "004010".
func interchangeVersion(raw RawSegment) string {
	v := strings.TrimSpace(element(raw, 12))
	if v == "" {
		return ""
	}
	return v + "0"
}

func element(raw RawSegment, pos int) string {
	if pos < len(raw.Elements) {
		return raw.Elements[pos]
	}
	return ""
}

func isAlphaNumeric(s string) bool {
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			return false
		}
	}
	return true
}

func (d *Decoder) logValidation(ctx types.Context, errs []ValidationError) {
	for _, e := range errs {
		d.logger.Warn("validation error", "batch", d.batch.ID, "entity", ctx.ContextLabel(), "error", e.Error())
	}
}
