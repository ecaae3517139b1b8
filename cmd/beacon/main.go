// Package main is the entry point for the beacon command.
package main

import (
	"os"

	"github.com/dshills/beacon/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
