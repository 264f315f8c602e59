// =============================================================================
// X12 Decoder - Schema Definitions
// =============================================================================
//
// This package describes the layout of X12 segments and transaction sets and
// holds them in a version-partitioned registry. A schema is pure data: it is
// built at process start (builtin definitions, XLSX workbooks, YAML maps) and
// only read afterwards.
//
// SEGMENT LAYOUT:
//   A Segment lists its Elements by 1-based position. Each element carries the
//   X12 data element reference, its data type and its length bounds:
//
//   | Pos | ID  | Name                        | Type | Min | Max | Req |
//   |-----|-----|-----------------------------|------|-----|-----|-----|
//   | 01  | 143 | Transaction Set Identifier  | ID   | 3   | 3   | M   |
//   | 02  | 329 | Transaction Set Control No. | AN   | 4   | 9   | M   |
//
// TRANSACTION MAPS:
//   A TransactionMap names the loops of one transaction set. Each loop is
//   opened by a trigger segment and nests under a parent loop (empty parent
//   means the transaction root).
//
// =============================================================================

package schema

import (
	"fmt"
	"strings"
)

// =============================================================================
// DATA TYPES
// =============================================================================

// DataType is an X12 simple data element type.
type DataType string

const (
	// TypeNumeric is implied-decimal numeric. N0 has no decimals, N2 has two.
	TypeNumeric DataType = "N"
	// TypeDecimal is an explicit decimal number ("R").
	TypeDecimal DataType = "R"
	// TypeIdentifier is a code value from a code list.
	TypeIdentifier DataType = "ID"
	// TypeString is free alphanumeric text.
	TypeString DataType = "AN"
	// TypeDate is YYMMDD or CCYYMMDD.
	TypeDate DataType = "DT"
	// TypeTime is HHMM, HHMMSS or HHMMSSd..d.
	TypeTime DataType = "TM"
	// TypeBinary is opaque binary data.
	TypeBinary DataType = "B"
)

// ParseDataType normalizes workbook and YAML spellings of a data type.
// Implied-decimal numerics keep their precision suffix ("N2").
func ParseDataType(s string) (DataType, int, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case v == "" || v == "AN" || v == "STRING":
		return TypeString, 0, nil
	case v == "ID":
		return TypeIdentifier, 0, nil
	case v == "R" || v == "DECIMAL":
		return TypeDecimal, 0, nil
	case v == "DT" || v == "DATE":
		return TypeDate, 0, nil
	case v == "TM" || v == "TIME":
		return TypeTime, 0, nil
	case v == "B":
		return TypeBinary, 0, nil
	case v == "N":
		return TypeNumeric, 0, nil
	case len(v) == 2 && v[0] == 'N' && v[1] >= '0' && v[1] <= '9':
		return TypeNumeric, int(v[1] - '0'), nil
	default:
		return "", 0, fmt.Errorf("unknown data type %q", s)
	}
}

// Requirement is the element usage designator.
type Requirement string

const (
	Mandatory  Requirement = "M"
	Optional   Requirement = "O"
	Relational Requirement = "X"
)

// ParseRequirement accepts the X12 letters and the long spellings used in
// workbooks. Unknown values are treated as optional.
func ParseRequirement(s string) Requirement {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "mandatory", "required", "req", "r", "yes", "y":
		return Mandatory
	case "x", "relational", "conditional", "cond", "c":
		return Relational
	default:
		return Optional
	}
}

// =============================================================================
// SEGMENT SCHEMA
// =============================================================================

// Element is the definition of one positional element.
type Element struct {
	Position    int
	ID          string
	Name        string
	Type        DataType
	Precision   int
	MinLength   int
	MaxLength   int
	Requirement Requirement
}

// Segment is the field layout of one segment in one version.
type Segment struct {
	ID       string
	Name     string
	Version  string
	Elements []Element
}

// Element returns the definition at a 1-based position.
func (s *Segment) Element(position int) (Element, bool) {
	for _, e := range s.Elements {
		if e.Position == position {
			return e, true
		}
	}
	return Element{}, false
}

// MaxPosition returns the highest defined position.
func (s *Segment) MaxPosition() int {
	highest := 0
	for _, e := range s.Elements {
		if e.Position > highest {
			highest = e.Position
		}
	}
	return highest
}

// =============================================================================
// TRANSACTION MAPS
// =============================================================================

// Loop describes one loop of a transaction set.
type Loop struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Trigger string `yaml:"trigger"`
	Parent  string `yaml:"parent,omitempty"`
}

// TransactionMap describes the body layout of one transaction set.
type TransactionMap struct {
	Version string `yaml:"version"`
	Code    string `yaml:"code"`
	Name    string `yaml:"name"`
	Loops   []Loop `yaml:"loops"`
}

// ChildLoop returns the loop nested directly under parent (empty for root)
// that is opened by the given segment tag.
func (m *TransactionMap) ChildLoop(parent, trigger string) (Loop, bool) {
	for _, l := range m.Loops {
		if l.Parent == parent && l.Trigger == trigger {
			return l, true
		}
	}
	return Loop{}, false
}

// Validate checks that every loop has an id and a trigger and that parents
// refer to loops defined in the same map.
func (m *TransactionMap) Validate() error {
	if m.Version == "" || m.Code == "" {
		return fmt.Errorf("transaction map needs version and code")
	}
	ids := make(map[string]bool, len(m.Loops))
	for _, l := range m.Loops {
		if l.ID == "" || l.Trigger == "" {
			return fmt.Errorf("transaction map %s/%s: loop needs id and trigger", m.Version, m.Code)
		}
		if ids[l.ID] {
			return fmt.Errorf("transaction map %s/%s: duplicate loop %s", m.Version, m.Code, l.ID)
		}
		ids[l.ID] = true
	}
	for _, l := range m.Loops {
		if l.Parent != "" && !ids[l.Parent] {
			return fmt.Errorf("transaction map %s/%s: loop %s has unknown parent %s", m.Version, m.Code, l.ID, l.Parent)
		}
	}
	return nil
}
