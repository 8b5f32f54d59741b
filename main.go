package main

import (
	"os"

	"github.com/conneroisu/time-mcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
