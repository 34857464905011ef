package types

import (
	"fmt"
)

// ErrToolNotRegistered is returned when an export names a tool that no
// active backend registered.
type ErrToolNotRegistered struct {
	Tool string
}

func (e *ErrToolNotRegistered) Error() string {
	return fmt.Sprintf("tool not registered for export: %s", e.Tool)
}

// ErrHandlerMissing is returned when a tool is registered as exportable
// but its backend never paired it with a request handler.
type ErrHandlerMissing struct {
	Tool string
}

func (e *ErrHandlerMissing) Error() string {
	return fmt.Sprintf("tool %s is registered as exportable but has no export handler", e.Tool)
}

// ErrDestinationConflict is returned when two export results claim the
// same destination directory under dist/bins.
type ErrDestinationConflict struct {
	RelDir string
	First  string
	Second string
}

func (e *ErrDestinationConflict) Error() string {
	return fmt.Sprintf("export destination %q claimed by both %s and %s", e.RelDir, e.First, e.Second)
}

// ErrBinaryNotInDigest is returned when an exported binary's path does not
// resolve to a regular file inside its result's digest.
type ErrBinaryNotInDigest struct {
	Binary string
	Path   string
	Digest string
}

func (e *ErrBinaryNotInDigest) Error() string {
	return fmt.Sprintf("binary %s: path %q not found in digest %s", e.Binary, e.Path, e.Digest)
}

// ErrUnknownBackend is returned when the config activates a backend
// identifier that quiver does not ship.
type ErrUnknownBackend struct {
	ID string
}

func (e *ErrUnknownBackend) Error() string {
	return fmt.Sprintf("unknown backend: %s", e.ID)
}
