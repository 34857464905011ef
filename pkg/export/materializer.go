package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"

	"github.com/quiver-build/quiver/pkg/digest"
)

const lockRetryInterval = 100 * time.Millisecond

// Materializer consumes a validated plan and writes it under dist/:
// the full tree of each result goes to dist/bins/<reldir>/..., and each
// named binary is linked from dist/bin/<name>. A file lock on dist/
// keeps concurrent exports from interleaving.
type Materializer struct {
	store   *digest.Store
	distDir string
}

func NewMaterializer(store *digest.Store, distDir string) *Materializer {
	return &Materializer{store: store, distDir: distDir}
}

// Summary reports what one materialization wrote.
type Summary struct {
	Tools    int
	Binaries []string
	BinDir   string
	BinsDir  string
}

// Materialize writes every result in the plan. Existing content for a
// re-exported destination is replaced.
func (m *Materializer) Materialize(ctx context.Context, plan *Plan) (*Summary, error) {
	if err := os.MkdirAll(m.distDir, 0755); err != nil {
		return nil, fmt.Errorf("create dist directory: %w", err)
	}

	lock := flock.New(filepath.Join(m.distDir, ".quiver.lock"))
	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("lock dist directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("dist directory is locked by another export")
	}
	defer lock.Unlock()

	binsDir := filepath.Join(m.distDir, "bins")
	binDir := filepath.Join(m.distDir, "bin")
	for _, dir := range []string{binsDir, binDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}

	summary := &Summary{
		Tools:   len(plan.Results),
		BinDir:  binDir,
		BinsDir: binsDir,
	}

	for _, res := range plan.Results {
		dest := filepath.Join(binsDir, filepath.FromSlash(res.RelDir))

		// Replace any previous export of the same destination wholesale.
		if err := os.RemoveAll(dest); err != nil {
			return nil, fmt.Errorf("clear %s: %w", dest, err)
		}
		if err := m.store.Materialize(res.Digest, dest); err != nil {
			return nil, fmt.Errorf("materialize %s: %w", res.Description, err)
		}

		for _, bin := range res.Binaries {
			if err := m.link(binDir, dest, bin); err != nil {
				return nil, err
			}
			summary.Binaries = append(summary.Binaries, bin.Name)
		}

		log.Info().
			Str("tool", res.Description).
			Str("dest", dest).
			Str("digest", res.Digest.Short()).
			Msg("exported tool")
	}

	return summary, nil
}

// link points dist/bin/<name> at the materialized binary with a relative
// symlink, replacing any stale entry.
func (m *Materializer) link(binDir, dest string, bin Binary) error {
	target := filepath.Join(dest, filepath.FromSlash(bin.PathInExport))
	rel, err := filepath.Rel(binDir, target)
	if err != nil {
		return fmt.Errorf("relativize link target: %w", err)
	}

	linkPath := filepath.Join(binDir, bin.Name)
	if err := os.Remove(linkPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale link %s: %w", linkPath, err)
	}
	if err := os.Symlink(rel, linkPath); err != nil {
		return fmt.Errorf("link %s: %w", bin.Name, err)
	}

	return nil
}
