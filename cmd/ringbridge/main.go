// Package main is the entry point for the ringbridge CLI.
package main

import (
	"os"

	"github.com/ringbridge/ringbridge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
