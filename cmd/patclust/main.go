// Package main provides the entry point for the patclust CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/patclust/cmd/patclust/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
