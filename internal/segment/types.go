package segment

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/x12-decoder/internal/schema"
)

// =============================================================================
// DATA TYPE CONVERTERS
// =============================================================================

// convert parses raw according to the element's data type.
//
// RETURNS:
//   - The typed value (int64, float64, time.Time or string). When the value
//     does not parse, the raw string is returned as the value.
//   - An error message if the value does not match the type, empty otherwise.
func convert(raw string, def schema.Element) (any, string) {
	switch def.Type {
	case schema.TypeNumeric:
		return convertNumeric(raw, def.Precision)
	case schema.TypeDecimal:
		return convertDecimal(raw)
	case schema.TypeDate:
		return convertDate(raw)
	case schema.TypeTime:
		return convertTime(raw)
	case schema.TypeIdentifier:
		return strings.TrimSpace(raw), ""
	default:
		return raw, ""
	}
}

// convertNumeric handles implied-decimal numerics. N0 yields int64, N2 with
// raw "12345" yields 123.45.
func convertNumeric(raw string, precision int) (any, string) {
	v := strings.TrimSpace(raw)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return raw, fmt.Sprintf("value '%s' is not a valid integer", raw)
	}
	if precision == 0 {
		return n, ""
	}
	return float64(n) / math.Pow10(precision), ""
}

func convertDecimal(raw string) (any, string) {
	v := strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || strings.ContainsAny(v, "eE") {
		return raw, fmt.Sprintf("value '%s' is not a valid decimal number", raw)
	}
	return f, ""
}

// convertDate accepts YYMMDD and CCYYMMDD.
func convertDate(raw string) (any, string) {
	var layout string
	switch len(raw) {
	case 6:
		layout = "060102"
	case 8:
		layout = "20060102"
	default:
		return raw, fmt.Sprintf("value '%s' is not a valid date", raw)
	}
	t, err := time.Parse(layout, raw)
	if err != nil {
		return raw, fmt.Sprintf("value '%s' is not a valid date", raw)
	}
	return t, ""
}

// convertTime accepts HHMM, HHMMSS and HHMMSS followed by decimal seconds.
func convertTime(raw string) (any, string) {
	var layout string
	switch {
	case len(raw) == 4:
		layout = "1504"
	case len(raw) == 6:
		layout = "150405"
	case len(raw) > 6 && len(raw) <= 8:
		layout = "150405." + strings.Repeat("0", len(raw)-6)
		raw = raw[:6] + "." + raw[6:]
	default:
		return raw, fmt.Sprintf("value '%s' is not a valid time", raw)
	}
	t, err := time.Parse(layout, raw)
	if err != nil {
		return raw, fmt.Sprintf("value '%s' is not a valid time", strings.Replace(raw, ".", "", 1))
	}
	return t, ""
}

// significantLength counts the characters that X12 length rules apply to.
// Signs and decimal points do not count for numeric types.
func significantLength(raw string, t schema.DataType) int {
	if t != schema.TypeNumeric && t != schema.TypeDecimal {
		return len(raw)
	}
	n := 0
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
