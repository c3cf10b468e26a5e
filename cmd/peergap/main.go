package main

import (
	"os"

	"github.com/wonny/peergap/cmd/peergap/commands"
)

// main is the entry point for the peergap CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/peergap [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
