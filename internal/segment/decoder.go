// =============================================================================
// X12 Decoder - Segment Field Decoder
// =============================================================================
//
// This module turns the raw element list of one segment into typed fields,
// using the segment's schema. It is the field-level collaborator of the
// envelope engine and of the body parser.
//
// DECODING RULES:
//   - Position 1 is the first element after the segment tag.
//   - Empty elements are kept; they mean "not used" in X12.
//   - Every element gets a Field, even when the schema does not define its
//     position (those are reported as surplus).
//   - Problems are collected as FieldIssues, never returned as errors.
//
// ISSUE RULES:
//   - required    : a mandatory element is missing or empty
//   - min_length  : the value is shorter than the schema minimum
//   - max_length  : the value is longer than the schema maximum
//   - data_type   : the value does not parse as the element's data type
//   - surplus     : a non-empty element at a position the schema lacks
//
// =============================================================================

package segment

import (
	"fmt"

	"github.com/ginjaninja78/x12-decoder/internal/schema"
	"github.com/ginjaninja78/x12-decoder/internal/types"
)

// Decode maps the raw elements of one segment onto seg.
//
// PARAMETERS:
//   - seg: The resolved segment schema.
//   - elements: The raw elements, segment tag first.
//   - ctx: The owning entity; used only to label issues.
//
// RETURNS:
//   - The decoded segment. Field-level problems are in its Issues slice.
func Decode(seg *schema.Segment, elements []string, ctx types.Context) types.ParsedSegment {
	if seg == nil {
		return DecodeRaw(elements)
	}

	parsed := types.ParsedSegment{
		Tag:     tagOf(elements),
		Version: seg.Version,
	}

	for pos := 1; pos < len(elements); pos++ {
		raw := elements[pos]
		def, ok := seg.Element(pos)
		if !ok {
			parsed.Fields = append(parsed.Fields, types.Field{Position: pos, Raw: raw, Value: valueOrNil(raw)})
			if raw != "" {
				msg := fmt.Sprintf("%s has no element defined at position %d", seg.ID, pos)
				if last := seg.MaxPosition(); pos > last {
					msg = fmt.Sprintf("%s defines %d elements, found a value at position %d", seg.ID, last, pos)
				}
				parsed.Issues = append(parsed.Issues, issue(ctx, pos, "surplus", msg))
			}
			continue
		}

		field := types.Field{Position: pos, ID: def.ID, Name: def.Name, Raw: raw}
		parsed.Fields = append(parsed.Fields, field)
		if raw == "" {
			if def.Requirement == schema.Mandatory {
				parsed.Issues = append(parsed.Issues, issue(ctx, pos, "required",
					fmt.Sprintf("mandatory element %s%02d (%s) is empty", seg.ID, pos, def.Name)))
			}
			continue
		}

		value, typeErr := convert(raw, def)
		parsed.Fields[len(parsed.Fields)-1].Value = value
		if typeErr != "" {
			parsed.Issues = append(parsed.Issues, issue(ctx, pos, "data_type", typeErr))
		}
		parsed.Issues = append(parsed.Issues, checkLength(ctx, seg.ID, raw, def)...)
	}

	// Mandatory elements past the end of a truncated segment.
	for _, def := range seg.Elements {
		if def.Position >= len(elements) && def.Requirement == schema.Mandatory {
			parsed.Issues = append(parsed.Issues, issue(ctx, def.Position, "required",
				fmt.Sprintf("mandatory element %s%02d (%s) is missing", seg.ID, def.Position, def.Name)))
		}
	}

	return parsed
}

// DecodeRaw keeps the elements as strings when no schema is available.
func DecodeRaw(elements []string) types.ParsedSegment {
	parsed := types.ParsedSegment{Tag: tagOf(elements)}
	for pos := 1; pos < len(elements); pos++ {
		parsed.Fields = append(parsed.Fields, types.Field{
			Position: pos,
			Raw:      elements[pos],
			Value:    valueOrNil(elements[pos]),
		})
	}
	return parsed
}

func tagOf(elements []string) string {
	if len(elements) == 0 {
		return ""
	}
	return elements[0]
}

func valueOrNil(raw string) any {
	if raw == "" {
		return nil
	}
	return raw
}

func issue(ctx types.Context, pos int, rule, msg string) types.FieldIssue {
	if ctx != nil {
		msg = ctx.ContextLabel() + ": " + msg
	}
	return types.FieldIssue{Position: pos, Rule: rule, Message: msg}
}

func checkLength(ctx types.Context, segID, raw string, def schema.Element) []types.FieldIssue {
	n := significantLength(raw, def.Type)
	var out []types.FieldIssue
	if def.MinLength > 0 && n < def.MinLength {
		out = append(out, issue(ctx, def.Position, "min_length",
			fmt.Sprintf("%s%02d value %q is shorter than %d characters", segID, def.Position, raw, def.MinLength)))
	}
	if def.MaxLength > 0 && n > def.MaxLength {
		out = append(out, issue(ctx, def.Position, "max_length",
			fmt.Sprintf("%s%02d value %q exceeds %d characters (actual: %d)", segID, def.Position, raw, def.MaxLength, n)))
	}
	return out
}
