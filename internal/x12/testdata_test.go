package x12

import (
	"fmt"
	"strings"
)

// isa renders a fixed-width ISA segment without its terminator.
func isa(control, version, repetition string) string {
	return fmt.Sprintf("ISA*00*%-10s*00*%-10s*ZZ*%-15s*ZZ*%-15s*030101*1253*%s*%s*%s*0*T*:",
		"", "", "SENDERID", "RECEIVERID", repetition, version, control)
}

// interchange joins segments with "~\n" after an ISA header.
func interchange(header string, segments ...string) string {
	return header + "~\n" + strings.Join(segments, "~\n") + "~\n"
}

func claim837() string {
	return interchange(isa("000000001", "00401", "U"),
		"GS*HC*SENDER*RECEIVER*20030101*1253*1*X*004010",
		"ST*837*0001",
		"BHT*0019*00*0123*20030101*1253*CH",
		"NM1*41*2*SUBMITTER*****46*12345",
		"HL*1**20*1",
		"NM1*85*2*BILLING PROVIDER*****XX*1234567893",
		"CLM*A37YH556*500***11:B:1*Y*A*Y*I",
		"LX*1",
		"SE*8*0001",
		"GE*1*1",
		"IEA*1*000000001",
	)
}
