// =============================================================================
// Gacha POS - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Gacha POS CLI application. It hands
// control to the Cobra command tree in the cmd package.
//
// USAGE:
//   pos shift start      - Open a shift
//   pos checkout <index> - Sell draws of an inventory item
//   pos shift close      - Export the day's reports
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : stores, checkout flow, validation, reports
//   - pkg/utils/ : file handling shared by the stores and reports
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/gacha-pos/cmd"
)

func main() {
	cmd.Execute()
}
