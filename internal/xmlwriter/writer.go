// =============================================================================
// X12 Decoder - XML Writer Module
// =============================================================================
//
// This module renders a decoded Batch as an XML document. The document
// mirrors the envelope nesting so that downstream systems can consume it
// without knowing X12.
//
// XML STRUCTURE:
//
//   <X12Batch id="...">
//     <Interchange control="000000001" version="004010" sender="..." receiver="...">
//       <Separators element="*" segment="~" component=":"/>
//       <Header tag="ISA">
//         <Element pos="1" id="I01" name="Authorization Information Qualifier">00</Element>
//         ...
//       </Header>
//       <Group control="1" functionalId="HC" version="004010X098A1">
//         <Header tag="GS">...</Header>
//         <Transaction code="837" control="0001" name="Health Care Claim">
//           <Header tag="ST">...</Header>
//           <Body name="Health Care Claim">
//             <Segment tag="BHT" seq="2">...</Segment>
//             <Loop id="2000" name="Hierarchical Level">...</Loop>
//           </Body>
//           <Trailer tag="SE">...</Trailer>
//           <ValidationError segment="SE">expected 5 ...</ValidationError>
//         </Transaction>
//         <Trailer tag="GE">...</Trailer>
//       </Group>
//       <Trailer tag="IEA">...</Trailer>
//     </Interchange>
//     <Warning>unterminated envelope ...</Warning>
//   </X12Batch>
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/ginjaninja78/x12-decoder/internal/types"
	"github.com/ginjaninja78/x12-decoder/internal/x12"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the encoding for the XML declaration.
	// Default: "UTF-8"
	Encoding string

	// RootElement is the document element name.
	// Default: "X12Batch"
	RootElement string

	// RootAttributes are additional attributes for the root element.
	// Example: {"xmlns": "http://example.com/schema"}
	RootAttributes map[string]string

	// IncludeRaw adds a raw="..." attribute to every element whose typed
	// value renders differently from the file text.
	IncludeRaw bool

	// IncludeIssues renders field-level issues under their segment.
	// Default: true
	IncludeIssues bool
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
		RootElement:           "X12Batch",
		RootAttributes:        make(map[string]string),
		IncludeIssues:         true,
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate renders batch with the default options.
func Generate(batch *x12.Batch) ([]byte, error) {
	return GenerateWithOptions(batch, DefaultGenerateOptions())
}

// GenerateWithOptions renders batch with custom options.
//
// RETURNS:
//   - The XML document as a byte slice.
//   - An error if the root element name is empty.
func GenerateWithOptions(batch *x12.Batch, options GenerateOptions) ([]byte, error) {
	if options.RootElement == "" {
		return nil, fmt.Errorf("root element name is required")
	}

	var buffer bytes.Buffer
	if options.IncludeXMLDeclaration {
		fmt.Fprintf(&buffer, "<?xml version=\"%s\" encoding=\"%s\"?>\n",
			options.XMLVersion, options.Encoding)
	}

	root := buildDocument(batch, options)
	writeElement(&buffer, root, options.Indent, 0)

	return buffer.Bytes(), nil
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// XMLElement represents a generic XML element.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Value      string
	Children   []XMLElement
}

func buildDocument(batch *x12.Batch, options GenerateOptions) XMLElement {
	root := newElement(options.RootElement, "id", batch.ID)

	keys := make([]string, 0, len(options.RootAttributes))
	for key := range options.RootAttributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		root.Attributes = append(root.Attributes, attr(key, options.RootAttributes[key]))
	}

	for _, ic := range batch.Interchanges {
		root.Children = append(root.Children, buildInterchange(ic, options))
	}
	for _, w := range batch.Warnings {
		root.Children = append(root.Children, XMLElement{XMLName: xml.Name{Local: "Warning"}, Value: w})
	}
	return root
}

func buildInterchange(ic *x12.Interchange, options GenerateOptions) XMLElement {
	el := newElement("Interchange",
		"control", ic.ControlNumber(),
		"version", ic.Version,
		"sender", trimPadding(ic.SenderID()),
		"receiver", trimPadding(ic.ReceiverID()))

	sep := newElement("Separators",
		"element", ic.Separators.Element,
		"segment", ic.Separators.Segment,
		"component", ic.Separators.Component)
	if ic.Separators.Repetition != "" {
		sep.Attributes = append(sep.Attributes, attr("repetition", ic.Separators.Repetition))
	}
	el.Children = append(el.Children, sep)

	el.Children = append(el.Children, buildSegment("Header", ic.Header, options))
	for _, g := range ic.Groups {
		el.Children = append(el.Children, buildGroup(g, options))
	}
	el.Children = append(el.Children, buildSegment("Trailer", ic.Trailer, options))
	el.Children = append(el.Children, validationErrors(ic.ValidationErrors)...)
	return el
}

func buildGroup(g *x12.Group, options GenerateOptions) XMLElement {
	el := newElement("Group",
		"control", g.ControlNumber(),
		"functionalId", g.FunctionalID(),
		"version", g.Version)

	el.Children = append(el.Children, buildSegment("Header", g.Header, options))
	for _, tx := range g.Transactions {
		el.Children = append(el.Children, buildTransaction(tx, options))
	}
	el.Children = append(el.Children, buildSegment("Trailer", g.Trailer, options))
	el.Children = append(el.Children, validationErrors(g.ValidationErrors)...)
	return el
}

func buildTransaction(tx *x12.Transaction, options GenerateOptions) XMLElement {
	el := newElement("Transaction",
		"code", tx.Code,
		"control", tx.ControlNumber(),
		"name", tx.Name)

	el.Children = append(el.Children, buildSegment("Header", tx.Header, options))
	if tx.Body != nil {
		el.Children = append(el.Children, buildLoop("Body", tx.Body, options))
	}
	el.Children = append(el.Children, buildSegment("Trailer", tx.Trailer, options))
	el.Children = append(el.Children, validationErrors(tx.ValidationErrors)...)
	return el
}

// buildLoop renders a loop's own segments first, then its child loops, the
// order in which the body parser appended them within each list.
func buildLoop(name string, loop *types.Loop, options GenerateOptions) XMLElement {
	el := newElement(name, "id", loop.ID, "name", loop.Name)
	for i := range loop.Segments {
		el.Children = append(el.Children, buildSegment("Segment", &loop.Segments[i], options))
	}
	for _, child := range loop.Loops {
		el.Children = append(el.Children, buildLoop("Loop", child, options))
	}
	return el
}

func buildSegment(name string, seg *types.ParsedSegment, options GenerateOptions) XMLElement {
	if seg == nil {
		return XMLElement{XMLName: xml.Name{Local: name}}
	}

	el := newElement(name, "tag", seg.Tag)
	if seg.Sequence > 0 {
		el.Attributes = append(el.Attributes, attr("seq", strconv.Itoa(seg.Sequence)))
	}

	for _, f := range seg.Fields {
		if f.Raw == "" {
			continue
		}
		child := newElement("Element", "pos", strconv.Itoa(f.Position))
		if f.ID != "" {
			child.Attributes = append(child.Attributes, attr("id", f.ID))
		}
		if f.Name != "" {
			child.Attributes = append(child.Attributes, attr("name", f.Name))
		}
		child.Value = formatValue(f)
		if options.IncludeRaw && child.Value != f.Raw {
			child.Attributes = append(child.Attributes, attr("raw", f.Raw))
		}
		el.Children = append(el.Children, child)
	}

	if options.IncludeIssues {
		for _, is := range seg.Issues {
			issue := newElement("Issue", "pos", strconv.Itoa(is.Position), "rule", is.Rule)
			issue.Value = is.Message
			el.Children = append(el.Children, issue)
		}
	}
	return el
}

func validationErrors(errs []x12.ValidationError) []XMLElement {
	out := make([]XMLElement, 0, len(errs))
	for _, e := range errs {
		el := newElement("ValidationError", "segment", e.Segment)
		el.Value = e.Message
		out = append(out, el)
	}
	return out
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatValue renders a typed field value. Dates become ISO dates, times
// become HH:MM:SS, numbers lose their implied-decimal encoding.
func formatValue(f types.Field) string {
	switch v := f.Value.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		if v.Year() == 0 {
			if v.Nanosecond() > 0 {
				return v.Format("15:04:05.999999999")
			}
			return v.Format("15:04:05")
		}
		return v.Format("2006-01-02")
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// newElement builds an element from name/value attribute pairs. Empty values
// are omitted.
func newElement(name string, attrs ...string) XMLElement {
	el := XMLElement{XMLName: xml.Name{Local: name}}
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i+1] == "" {
			continue
		}
		el.Attributes = append(el.Attributes, attr(attrs[i], attrs[i+1]))
	}
	return el
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func trimPadding(s string) string {
	end := len(s)
	for end > 0 && s[end-1] == ' ' {
		end--
	}
	return s[:end]
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)
	for _, a := range element.Attributes {
		fmt.Fprintf(buffer, " %s=\"%s\"", a.Name.Local, escapeXML(a.Value))
	}

	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if element.Value != "" {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")
		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}
		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML text and attributes. Line
// breaks become character references so that a terminator such as "~\n"
// survives in an attribute. Other control characters, which XML 1.0 cannot
// carry, are written as \xNN.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		case '\n':
			buffer.WriteString("&#xA;")
		case '\r':
			buffer.WriteString("&#xD;")
		default:
			if r < 0x20 && r != '\t' {
				fmt.Fprintf(&buffer, "\\x%02X", r)
				continue
			}
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
