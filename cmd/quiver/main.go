package main

import (
	"os"

	// Import init package first to set up environment defaults before other packages load
	_ "github.com/quiver-build/quiver/internal/init"

	"github.com/quiver-build/quiver/pkg/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
