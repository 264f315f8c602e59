package schema

// Builtin versions.
const (
	Version4010 = "004010"
	Version5010 = "005010"
)

// NewBuiltinRegistry returns a registry preloaded with the envelope segments,
// a set of common body segments and the transaction maps shipped with the
// decoder, for both 004010 and 005010.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, version := range []string{Version4010, Version5010} {
		for _, seg := range builtinSegments(version) {
			must(r.RegisterSegment(seg))
		}
		for _, m := range builtinTransactions(version) {
			must(r.RegisterTransaction(m))
		}
	}
	return r
}

// must panics on an error from the static builtin tables.
func must(err error) {
	if err != nil {
		panic("schema: bad builtin definition: " + err.Error())
	}
}

func el(pos int, id, name string, t DataType, min, max int, req Requirement) Element {
	return Element{Position: pos, ID: id, Name: name, Type: t, MinLength: min, MaxLength: max, Requirement: req}
}

func builtinSegments(version string) []*Segment {
	isa11 := el(11, "I10", "Interchange Control Standards Identifier", TypeIdentifier, 1, 1, Mandatory)
	if version == Version5010 {
		isa11 = el(11, "I65", "Repetition Separator", TypeString, 1, 1, Mandatory)
	}

	segs := []*Segment{
		{ID: "ISA", Name: "Interchange Control Header", Elements: []Element{
			el(1, "I01", "Authorization Information Qualifier", TypeIdentifier, 2, 2, Mandatory),
			el(2, "I02", "Authorization Information", TypeString, 10, 10, Mandatory),
			el(3, "I03", "Security Information Qualifier", TypeIdentifier, 2, 2, Mandatory),
			el(4, "I04", "Security Information", TypeString, 10, 10, Mandatory),
			el(5, "I05", "Interchange ID Qualifier", TypeIdentifier, 2, 2, Mandatory),
			el(6, "I06", "Interchange Sender ID", TypeString, 15, 15, Mandatory),
			el(7, "I05", "Interchange ID Qualifier", TypeIdentifier, 2, 2, Mandatory),
			el(8, "I07", "Interchange Receiver ID", TypeString, 15, 15, Mandatory),
			el(9, "I08", "Interchange Date", TypeDate, 6, 6, Mandatory),
			el(10, "I09", "Interchange Time", TypeTime, 4, 4, Mandatory),
			isa11,
			el(12, "I11", "Interchange Control Version Number", TypeIdentifier, 5, 5, Mandatory),
			el(13, "I12", "Interchange Control Number", TypeNumeric, 9, 9, Mandatory),
			el(14, "I13", "Acknowledgment Requested", TypeIdentifier, 1, 1, Mandatory),
			el(15, "I14", "Usage Indicator", TypeIdentifier, 1, 1, Mandatory),
			el(16, "I15", "Component Element Separator", TypeString, 1, 1, Mandatory),
		}},
		{ID: "IEA", Name: "Interchange Control Trailer", Elements: []Element{
			el(1, "I16", "Number of Included Functional Groups", TypeNumeric, 1, 5, Mandatory),
			el(2, "I12", "Interchange Control Number", TypeNumeric, 9, 9, Mandatory),
		}},
		{ID: "GS", Name: "Functional Group Header", Elements: []Element{
			el(1, "479", "Functional Identifier Code", TypeIdentifier, 2, 2, Mandatory),
			el(2, "142", "Application Sender's Code", TypeString, 2, 15, Mandatory),
			el(3, "124", "Application Receiver's Code", TypeString, 2, 15, Mandatory),
			el(4, "373", "Date", TypeDate, 8, 8, Mandatory),
			el(5, "337", "Time", TypeTime, 4, 8, Mandatory),
			el(6, "28", "Group Control Number", TypeNumeric, 1, 9, Mandatory),
			el(7, "455", "Responsible Agency Code", TypeIdentifier, 1, 2, Mandatory),
			el(8, "480", "Version / Release / Industry Identifier Code", TypeString, 1, 12, Mandatory),
		}},
		{ID: "GE", Name: "Functional Group Trailer", Elements: []Element{
			el(1, "97", "Number of Transaction Sets Included", TypeNumeric, 1, 6, Mandatory),
			el(2, "28", "Group Control Number", TypeNumeric, 1, 9, Mandatory),
		}},
		{ID: "ST", Name: "Transaction Set Header", Elements: []Element{
			el(1, "143", "Transaction Set Identifier Code", TypeIdentifier, 3, 3, Mandatory),
			el(2, "329", "Transaction Set Control Number", TypeString, 4, 9, Mandatory),
			el(3, "1705", "Implementation Convention Reference", TypeString, 1, 35, Optional),
		}},
		{ID: "SE", Name: "Transaction Set Trailer", Elements: []Element{
			el(1, "96", "Number of Included Segments", TypeNumeric, 1, 10, Mandatory),
			el(2, "329", "Transaction Set Control Number", TypeString, 4, 9, Mandatory),
		}},

		// Common body segments.
		{ID: "BHT", Name: "Beginning of Hierarchical Transaction", Elements: []Element{
			el(1, "1005", "Hierarchical Structure Code", TypeIdentifier, 4, 4, Mandatory),
			el(2, "353", "Transaction Set Purpose Code", TypeIdentifier, 2, 2, Mandatory),
			el(3, "127", "Reference Identification", TypeString, 1, 30, Optional),
			el(4, "373", "Date", TypeDate, 8, 8, Optional),
			el(5, "337", "Time", TypeTime, 4, 8, Optional),
			el(6, "640", "Transaction Type Code", TypeIdentifier, 2, 2, Optional),
		}},
		{ID: "HL", Name: "Hierarchical Level", Elements: []Element{
			el(1, "628", "Hierarchical ID Number", TypeString, 1, 12, Mandatory),
			el(2, "734", "Hierarchical Parent ID Number", TypeString, 1, 12, Optional),
			el(3, "735", "Hierarchical Level Code", TypeIdentifier, 1, 2, Mandatory),
			el(4, "736", "Hierarchical Child Code", TypeIdentifier, 1, 1, Optional),
		}},
		{ID: "NM1", Name: "Individual or Organizational Name", Elements: []Element{
			el(1, "98", "Entity Identifier Code", TypeIdentifier, 2, 3, Mandatory),
			el(2, "1065", "Entity Type Qualifier", TypeIdentifier, 1, 1, Mandatory),
			el(3, "1035", "Name Last or Organization Name", TypeString, 1, 60, Optional),
			el(4, "1036", "Name First", TypeString, 1, 35, Optional),
			el(5, "1037", "Name Middle", TypeString, 1, 25, Optional),
			el(6, "1038", "Name Prefix", TypeString, 1, 10, Optional),
			el(7, "1039", "Name Suffix", TypeString, 1, 10, Optional),
			el(8, "66", "Identification Code Qualifier", TypeIdentifier, 1, 2, Relational),
			el(9, "67", "Identification Code", TypeString, 2, 80, Relational),
		}},
		{ID: "N1", Name: "Name", Elements: []Element{
			el(1, "98", "Entity Identifier Code", TypeIdentifier, 2, 3, Mandatory),
			el(2, "93", "Name", TypeString, 1, 60, Relational),
			el(3, "66", "Identification Code Qualifier", TypeIdentifier, 1, 2, Relational),
			el(4, "67", "Identification Code", TypeString, 2, 80, Relational),
		}},
		{ID: "N3", Name: "Address Information", Elements: []Element{
			el(1, "166", "Address Information", TypeString, 1, 55, Mandatory),
			el(2, "166", "Address Information", TypeString, 1, 55, Optional),
		}},
		{ID: "N4", Name: "Geographic Location", Elements: []Element{
			el(1, "19", "City Name", TypeString, 2, 30, Optional),
			el(2, "156", "State or Province Code", TypeIdentifier, 2, 2, Optional),
			el(3, "116", "Postal Code", TypeIdentifier, 3, 15, Optional),
			el(4, "26", "Country Code", TypeIdentifier, 2, 3, Optional),
		}},
		{ID: "REF", Name: "Reference Identification", Elements: []Element{
			el(1, "128", "Reference Identification Qualifier", TypeIdentifier, 2, 3, Mandatory),
			el(2, "127", "Reference Identification", TypeString, 1, 50, Relational),
			el(3, "352", "Description", TypeString, 1, 80, Relational),
		}},
		{ID: "DTP", Name: "Date or Time or Period", Elements: []Element{
			el(1, "374", "Date/Time Qualifier", TypeIdentifier, 3, 3, Mandatory),
			el(2, "1250", "Date Time Period Format Qualifier", TypeIdentifier, 2, 3, Mandatory),
			el(3, "1251", "Date Time Period", TypeString, 1, 35, Mandatory),
		}},
		{ID: "CLM", Name: "Health Claim", Elements: []Element{
			el(1, "1028", "Claim Submitter's Identifier", TypeString, 1, 38, Mandatory),
			el(2, "782", "Monetary Amount", TypeDecimal, 1, 18, Optional),
		}},
		{ID: "LX", Name: "Assigned Number", Elements: []Element{
			el(1, "554", "Assigned Number", TypeNumeric, 1, 6, Mandatory),
		}},
		{ID: "BEG", Name: "Beginning Segment for Purchase Order", Elements: []Element{
			el(1, "353", "Transaction Set Purpose Code", TypeIdentifier, 2, 2, Mandatory),
			el(2, "92", "Purchase Order Type Code", TypeIdentifier, 2, 2, Mandatory),
			el(3, "324", "Purchase Order Number", TypeString, 1, 22, Mandatory),
			el(4, "328", "Release Number", TypeString, 1, 30, Optional),
			el(5, "373", "Date", TypeDate, 8, 8, Mandatory),
		}},
		{ID: "PO1", Name: "Baseline Item Data", Elements: []Element{
			el(1, "350", "Assigned Identification", TypeString, 1, 20, Optional),
			el(2, "330", "Quantity Ordered", TypeDecimal, 1, 15, Relational),
			el(3, "355", "Unit or Basis for Measurement Code", TypeIdentifier, 2, 2, Optional),
			el(4, "212", "Unit Price", TypeDecimal, 1, 17, Relational),
		}},
		{ID: "CTT", Name: "Transaction Totals", Elements: []Element{
			el(1, "354", "Number of Line Items", TypeNumeric, 1, 6, Mandatory),
			el(2, "347", "Hash Total", TypeDecimal, 1, 10, Optional),
		}},
		{ID: "BIG", Name: "Beginning Segment for Invoice", Elements: []Element{
			el(1, "373", "Date", TypeDate, 8, 8, Mandatory),
			el(2, "76", "Invoice Number", TypeString, 1, 22, Mandatory),
			el(3, "373", "Date", TypeDate, 8, 8, Optional),
			el(4, "324", "Purchase Order Number", TypeString, 1, 22, Optional),
		}},
		{ID: "IT1", Name: "Baseline Item Data (Invoice)", Elements: []Element{
			el(1, "350", "Assigned Identification", TypeString, 1, 20, Optional),
			el(2, "358", "Quantity Invoiced", TypeDecimal, 1, 10, Relational),
			el(3, "355", "Unit or Basis for Measurement Code", TypeIdentifier, 2, 2, Relational),
			el(4, "212", "Unit Price", TypeDecimal, 1, 17, Relational),
		}},
		{ID: "TDS", Name: "Total Monetary Value Summary", Elements: []Element{
			el(1, "610", "Amount", TypeNumeric, 1, 15, Mandatory),
		}},
		{ID: "BPR", Name: "Financial Information", Elements: []Element{
			el(1, "305", "Transaction Handling Code", TypeIdentifier, 1, 2, Mandatory),
			el(2, "782", "Monetary Amount", TypeDecimal, 1, 18, Mandatory),
			el(3, "478", "Credit/Debit Flag Code", TypeIdentifier, 1, 1, Mandatory),
			el(4, "591", "Payment Method Code", TypeIdentifier, 3, 3, Mandatory),
		}},
		{ID: "CLP", Name: "Claim Payment Information", Elements: []Element{
			el(1, "1028", "Claim Submitter's Identifier", TypeString, 1, 38, Mandatory),
			el(2, "1029", "Claim Status Code", TypeIdentifier, 1, 2, Mandatory),
			el(3, "782", "Monetary Amount", TypeDecimal, 1, 18, Mandatory),
			el(4, "782", "Monetary Amount", TypeDecimal, 1, 18, Mandatory),
		}},
		{ID: "SVC", Name: "Service Payment Information", Elements: []Element{
			el(1, "C003", "Composite Medical Procedure Identifier", TypeString, 1, 80, Mandatory),
			el(2, "782", "Monetary Amount", TypeDecimal, 1, 18, Mandatory),
			el(3, "782", "Monetary Amount", TypeDecimal, 1, 18, Mandatory),
		}},
	}
	for _, s := range segs {
		s.Version = version
	}
	return segs
}

func builtinTransactions(version string) []*TransactionMap {
	maps := []*TransactionMap{
		{Code: "837", Name: "Health Care Claim", Loops: []Loop{
			{ID: "1000", Name: "Submitter/Receiver Name", Trigger: "NM1"},
			{ID: "2000", Name: "Hierarchical Level", Trigger: "HL"},
			{ID: "2010", Name: "Entity Name", Trigger: "NM1", Parent: "2000"},
			{ID: "2300", Name: "Claim Information", Trigger: "CLM", Parent: "2000"},
			{ID: "2310", Name: "Claim Provider Name", Trigger: "NM1", Parent: "2300"},
			{ID: "2400", Name: "Service Line", Trigger: "LX", Parent: "2300"},
		}},
		{Code: "835", Name: "Health Care Claim Payment/Advice", Loops: []Loop{
			{ID: "1000", Name: "Payer/Payee Identification", Trigger: "N1"},
			{ID: "2000", Name: "Header Number", Trigger: "LX"},
			{ID: "2100", Name: "Claim Payment Information", Trigger: "CLP", Parent: "2000"},
			{ID: "2110", Name: "Service Payment Information", Trigger: "SVC", Parent: "2100"},
		}},
		{Code: "850", Name: "Purchase Order", Loops: []Loop{
			{ID: "N1", Name: "Party Identification", Trigger: "N1"},
			{ID: "PO1", Name: "Baseline Item Data", Trigger: "PO1"},
			{ID: "CTT", Name: "Transaction Totals", Trigger: "CTT"},
		}},
		{Code: "810", Name: "Invoice", Loops: []Loop{
			{ID: "N1", Name: "Party Identification", Trigger: "N1"},
			{ID: "IT1", Name: "Baseline Item Data (Invoice)", Trigger: "IT1"},
		}},
	}
	for _, m := range maps {
		m.Version = version
	}
	return maps
}
