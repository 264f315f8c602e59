package x12

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ginjaninja78/x12-decoder/internal/types"
)

// =============================================================================
// STRUCTURAL VALIDATION
// =============================================================================
//
// Each Validate function is a pure function of data already stored on the
// closed entity: calling it twice yields the same errors. The decoder appends
// the result to the entity's ValidationErrors when the closing segment is
// read. Declared counts and control numbers are informational checks; they
// never stop a decode.

// ValidateInterchange compares IEA01 with the groups found and ISA13 with
// IEA02.
func ValidateInterchange(ic *Interchange) []ValidationError {
	var errs []ValidationError
	if e, bad := checkCount("IEA", ic.Trailer, 1, len(ic.Groups), "functional group(s)"); bad {
		errs = append(errs, e)
	}
	if e, bad := checkControl("IEA", "ISA13", ic.Header.Raw(13), "IEA02", ic.Trailer.Raw(2)); bad {
		errs = append(errs, e)
	}
	return errs
}

// ValidateGroup compares GE01 with the transaction sets opened and GS06 with
// GE02.
func ValidateGroup(g *Group) []ValidationError {
	var errs []ValidationError
	if e, bad := checkCount("GE", g.Trailer, 1, g.TransactionSets, "transaction set(s)"); bad {
		errs = append(errs, e)
	}
	if e, bad := checkControl("GE", "GS06", g.Header.Raw(6), "GE02", g.Trailer.Raw(2)); bad {
		errs = append(errs, e)
	}
	return errs
}

// ValidateTransaction compares SE01 with the segments counted from ST to SE
// inclusive and ST02 with SE02.
func ValidateTransaction(tx *Transaction) []ValidationError {
	var errs []ValidationError
	if e, bad := checkCount("SE", tx.Trailer, 1, tx.SegmentCount, "segment(s)"); bad {
		errs = append(errs, e)
	}
	if e, bad := checkControl("SE", "ST02", tx.Header.Raw(2), "SE02", tx.Trailer.Raw(2)); bad {
		errs = append(errs, e)
	}
	return errs
}

// checkCount flags a declared count that is not a number or differs from the
// observed one. The message quotes the closing segment's control number.
func checkCount(tag string, trailer *types.ParsedSegment, pos, found int, what string) (ValidationError, bool) {
	declared := trailer.Raw(pos)
	control := trailer.Raw(pos + 1)
	n, err := strconv.Atoi(strings.TrimSpace(declared))
	if err != nil {
		return ValidationError{Segment: tag, Message: fmt.Sprintf(
			"%s%02d declared count %q is not a number; found %d %s (control number %s)",
			tag, pos, declared, found, what, control)}, true
	}
	if n != found {
		return ValidationError{Segment: tag, Message: fmt.Sprintf(
			"expected %d %s but found %d (control number %s)",
			n, what, found, control)}, true
	}
	return ValidationError{}, false
}

// checkControl requires both control numbers to parse as integers and be
// numerically equal.
func checkControl(tag, openName, open, closeName, closing string) (ValidationError, bool) {
	a, errA := strconv.ParseInt(strings.TrimSpace(open), 10, 64)
	b, errB := strconv.ParseInt(strings.TrimSpace(closing), 10, 64)
	if errA != nil || errB != nil || a != b {
		return ValidationError{Segment: tag, Message: fmt.Sprintf(
			"control number mismatch: %s %q vs %s %q", openName, open, closeName, closing)}, true
	}
	return ValidationError{}, false
}
