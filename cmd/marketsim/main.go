package main

import (
	"os"

	"github.com/wonny/marketsim/cmd/marketsim/commands"
)

// main is the entry point for the marketsim CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/marketsim [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
