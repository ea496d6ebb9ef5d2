package main

import (
	"os"

	"github.com/subspace/subspace-regenesis-tool/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}