// Package main runs the interactive detective CLI.
package main

import (
	"os"

	playcmd "github.com/casefiles/interrogation/internal/cmd/play"
)

func main() {
	if err := playcmd.Execute(); err != nil {
		os.Exit(1)
	}
}
