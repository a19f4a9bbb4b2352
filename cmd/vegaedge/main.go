package main

import (
	"os"

	"github.com/wonny/vegaedge/cmd/vegaedge/commands"
)

// main is the entry point for the VegaEdge CLI
// ⭐ Unified CLI entry point: go run ./cmd/vegaedge [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
