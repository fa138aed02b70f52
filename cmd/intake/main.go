package main

import (
	"os"

	"github.com/msto63/intake/cmd/intake/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
