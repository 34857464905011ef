package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

const defaultManifestCacheSize = 256

// Store is a local content-addressed store. File bodies live under
// blobs/ keyed by their sha256; manifests live under manifests/ keyed by
// tree digest. Blobs are shared between snapshots that contain the same
// content.
type Store struct {
	root      string
	manifests *lru.Cache[Digest, *Manifest]
}

// NewStore creates (or reopens) a store rooted at the given directory.
func NewStore(root string, manifestCacheSize int) (*Store, error) {
	if manifestCacheSize <= 0 {
		manifestCacheSize = defaultManifestCacheSize
	}

	for _, dir := range []string{filepath.Join(root, "blobs"), filepath.Join(root, "manifests")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	cache, err := lru.New[Digest, *Manifest](manifestCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create manifest cache: %w", err)
	}

	return &Store{root: root, manifests: cache}, nil
}

// Snapshot captures a directory tree into the store and returns its
// digest. Only regular files are captured; the executable bit is the one
// piece of mode information preserved.
func (s *Store) Snapshot(dir string) (Digest, error) {
	manifest := &Manifest{}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := os.Stat(path) // follows symlinks
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			log.Warn().Str("path", path).Msg("skipping irregular file during snapshot")
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		hash, err := s.storeBlob(path)
		if err != nil {
			return err
		}

		manifest.Entries = append(manifest.Entries, Entry{
			Path:       filepath.ToSlash(rel),
			Size:       info.Size(),
			SHA256:     hash,
			Executable: info.Mode()&0111 != 0,
		})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("snapshot %s: %w", dir, err)
	}

	d, err := manifest.Compute()
	if err != nil {
		return "", err
	}

	if err := s.writeManifest(d, manifest); err != nil {
		return "", err
	}
	s.manifests.Add(d, manifest)

	log.Debug().
		Str("digest", d.Short()).
		Int("files", len(manifest.Entries)).
		Msg("captured snapshot")

	return d, nil
}

// Manifest returns the manifest for a digest.
func (s *Store) Manifest(d Digest) (*Manifest, error) {
	if m, ok := s.manifests.Get(d); ok {
		return m, nil
	}

	data, err := os.ReadFile(s.manifestPath(d))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("unknown digest: %s", d.Short())
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", d.Short(), err)
	}
	s.manifests.Add(d, m)
	return m, nil
}

// Stat returns the entry for a path within a digest's tree.
func (s *Store) Stat(d Digest, path string) (*Entry, error) {
	m, err := s.Manifest(d)
	if err != nil {
		return nil, err
	}
	entry, ok := m.Find(path)
	if !ok {
		return nil, fmt.Errorf("path %q not in digest %s", path, d.Short())
	}
	return entry, nil
}

// Has reports whether the store holds a manifest for the digest.
func (s *Store) Has(d Digest) bool {
	if _, ok := s.manifests.Get(d); ok {
		return true
	}
	_, err := os.Stat(s.manifestPath(d))
	return err == nil
}

// Materialize writes a digest's tree under dest. Each file is written to
// a temp name and renamed into place.
func (s *Store) Materialize(d Digest, dest string) error {
	m, err := s.Manifest(d)
	if err != nil {
		return err
	}

	for _, entry := range m.Entries {
		target := filepath.Join(dest, filepath.FromSlash(entry.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}

		mode := os.FileMode(0644)
		if entry.Executable {
			mode = 0755
		}
		if err := s.copyBlob(entry.SHA256, target, mode); err != nil {
			return fmt.Errorf("materialize %s: %w", entry.Path, err)
		}
	}

	log.Debug().
		Str("digest", d.Short()).
		Str("dest", dest).
		Int("files", len(m.Entries)).
		Msg("materialized snapshot")

	return nil
}

// storeBlob hashes a file and copies it into blobs/ if not already present.
func (s *Store) storeBlob(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	hash := hex.EncodeToString(h.Sum(nil))

	blobPath := s.blobPath(hash)
	if _, err := os.Stat(blobPath); err == nil {
		return hash, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind file: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%s", blobPath, uuid.New().String()[:6])
	out, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}

	_, err = io.Copy(out, f)
	out.Close()
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("write blob: %w", err)
	}

	if err := os.Rename(tmpPath, blobPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename blob: %w", err)
	}

	return hash, nil
}

func (s *Store) copyBlob(hash, target string, mode os.FileMode) error {
	src, err := os.Open(s.blobPath(hash))
	if err != nil {
		return fmt.Errorf("open blob %s: %w", hash[:12], err)
	}
	defer src.Close()

	tmpPath := fmt.Sprintf("%s.%s", target, uuid.New().String()[:6])
	out, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	_, err = io.Copy(out, src)
	out.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("copy blob: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

func (s *Store) writeManifest(d Digest, m *Manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	path := s.manifestPath(d)
	tmpPath := fmt.Sprintf("%s.%s", path, uuid.New().String()[:6])
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename manifest: %w", err)
	}
	return nil
}

func (s *Store) blobPath(hash string) string {
	return filepath.Join(s.root, "blobs", hash)
}

func (s *Store) manifestPath(d Digest) string {
	return filepath.Join(s.root, "manifests", string(d)+".json")
}
