// Package main is the entry point for pobctl.
package main

import (
	"os"

	"github.com/angelmc32/pob-v1/cmd/pobctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
