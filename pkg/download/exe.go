package download

import (
	"fmt"
	"path"

	"github.com/quiver-build/quiver/pkg/digest"
)

// ExePathFunc maps a tool's version and platform to the in-tree path of
// its executable. Backends supply one when the default heuristic picks
// the wrong file.
type ExePathFunc func(version string, p Platform) string

// DefaultExePath locates the executable inside a downloaded tool's
// extracted tree. It prefers a file named after the tool (optionally with
// an .exe suffix); failing that, it accepts a sole executable file.
// Trees where neither rule applies need a backend override.
func DefaultExePath(m *digest.Manifest, tool string) (string, error) {
	var named []string
	var executables []string

	for _, entry := range m.Entries {
		base := path.Base(entry.Path)
		if base == tool || base == tool+".exe" {
			named = append(named, entry.Path)
		}
		if entry.Executable {
			executables = append(executables, entry.Path)
		}
	}

	switch {
	case len(named) == 1:
		return named[0], nil
	case len(named) > 1:
		return "", fmt.Errorf("multiple files named %s in download: %v", tool, named)
	case len(executables) == 1:
		return executables[0], nil
	case len(executables) > 1:
		return "", fmt.Errorf("cannot pick executable for %s among %v; backend must override the exe path", tool, executables)
	default:
		return "", fmt.Errorf("no executable found in download for %s", tool)
	}
}
