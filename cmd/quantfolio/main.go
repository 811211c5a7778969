package main

import (
	"os"

	"github.com/rustyeddy/quantfolio/cmd/quantfolio/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
