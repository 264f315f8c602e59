// =============================================================================
// X12 Decoder - Main Entry Point
// =============================================================================
//
// USAGE:
//   x12dec decode     - Decode all X12 files in the input directory
//   x12dec schemas    - List or export the loaded schema definitions
//   x12dec version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/x12   : Delimiter sniffing, tokenizer, envelope engine
//   - internal/      : Schemas, segment and body decoding, XML output
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/x12-decoder/cmd"
)

func main() {
	cmd.Execute()
}
