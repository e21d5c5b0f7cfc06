// Package main is the sqlmark command.
package main

import (
	"os"

	"github.com/leapstack-labs/sqlmark/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
