package main

import (
	"os"

	"github.com/annotlab/sheetmap/cmd/sheetmap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
