// Package init sets up logging defaults before any other packages initialize.
// Import this package with a blank identifier as the first import of main so
// nothing logs with the library defaults.
package init

import (
	"os"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	// QUIVER_LOG overrides the level before config is even loaded
	if level, err := zerolog.ParseLevel(os.Getenv("QUIVER_LOG")); err == nil && level != zerolog.NoLevel {
		zerolog.SetGlobalLevel(level)
	}
}
