package main

import (
	"os"

	"github.com/solatis/vizconf/cmd/vizconf/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
