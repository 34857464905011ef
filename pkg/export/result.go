package export

import (
	"github.com/quiver-build/quiver/pkg/digest"
)

// Binary names one executable within an export result. Name becomes the
// link under dist/bin; PathInExport locates the file inside the digest.
type Binary struct {
	Name         string
	PathInExport string
}

// Result describes one exported unit. RelDir is the destination under
// dist/bins and must be unique across the whole export plan. Results are
// consumed by the materializer and discarded; they are never persisted.
type Result struct {
	Description string
	RelDir      string
	Digest      digest.Digest
	Resolve     string
	Binaries    []Binary
}

// Results is the collection a handler returns for one request.
type Results struct {
	Results []Result
}

// ResultsOf wraps results for handlers that build them inline.
func ResultsOf(results ...Result) Results {
	return Results{Results: results}
}
