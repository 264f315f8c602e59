package x12

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three fatal error kinds. A *ParsingError unwraps to
// exactly one of them, so callers can test with errors.Is.
var (
	ErrFormat         = errors.New("x12: format error")
	ErrMalformedData  = errors.New("x12: malformed data")
	ErrSchemaNotFound = errors.New("x12: schema not found")
)

// ErrorKind classifies a fatal decode failure.
type ErrorKind int

const (
	// KindFormat: the payload is not recognizable X12 (empty, no ISA, no
	// segment terminator).
	KindFormat ErrorKind = iota
	// KindMalformedData: envelope segments out of nesting order.
	KindMalformedData
	// KindSchemaNotFound: a required envelope schema is missing from both the
	// requested and the fallback version.
	KindSchemaNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindFormat:
		return "format"
	case KindMalformedData:
		return "malformed_data"
	case KindSchemaNotFound:
		return "schema_not_found"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindFormat:
		return ErrFormat
	case KindMalformedData:
		return ErrMalformedData
	default:
		return ErrSchemaNotFound
	}
}

// ParsingError aborts a decode. The batch passed to Decode keeps every
// interchange that closed before the fault.
type ParsingError struct {
	Kind ErrorKind

	// Segment is the tag of the offending segment, if any.
	Segment string

	// Index is the 1-based position of the offending segment in the file.
	// Zero when the fault precedes tokenization.
	Index int

	Message string

	// Err is the underlying cause, for example a *schema.NotFoundError.
	Err error
}

func (e *ParsingError) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.Index > 0 {
		msg += fmt.Sprintf(": segment %d (%s)", e.Index, e.Segment)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *ParsingError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

func formatError(msg string) *ParsingError {
	return &ParsingError{Kind: KindFormat, Message: msg}
}

func malformed(raw RawSegment, format string, args ...any) *ParsingError {
	return &ParsingError{
		Kind:    KindMalformedData,
		Segment: raw.Tag(),
		Index:   raw.Index,
		Message: fmt.Sprintf(format, args...),
	}
}

func schemaMissing(raw RawSegment, err error) *ParsingError {
	return &ParsingError{
		Kind:    KindSchemaNotFound,
		Segment: raw.Tag(),
		Index:   raw.Index,
		Message: "required envelope schema unavailable",
		Err:     err,
	}
}
