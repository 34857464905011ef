package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Digest is an opaque content-addressed handle to a file tree. It is the
// hex sha256 of the tree's canonical manifest.
type Digest string

func (d Digest) String() string {
	return string(d)
}

// Short returns an abbreviated form for log output.
func (d Digest) Short() string {
	if len(d) <= 12 {
		return string(d)
	}
	return string(d[:12])
}

// Entry describes one regular file within a manifest. Paths are
// slash-separated and relative to the tree root.
type Entry struct {
	Path       string `json:"path"`
	Size       int64  `json:"size"`
	SHA256     string `json:"sha256"`
	Executable bool   `json:"executable"`
}

// Manifest is the canonical description of a file tree. Entries are kept
// sorted by path so the same tree always encodes to the same bytes.
type Manifest struct {
	Entries []Entry `json:"entries"`
}

// Find returns the entry for a slash-separated relative path.
func (m *Manifest) Find(path string) (*Entry, bool) {
	i := sort.Search(len(m.Entries), func(i int) bool {
		return m.Entries[i].Path >= path
	})
	if i < len(m.Entries) && m.Entries[i].Path == path {
		return &m.Entries[i], true
	}
	return nil, false
}

func (m *Manifest) sortEntries() {
	sort.Slice(m.Entries, func(i, j int) bool {
		return m.Entries[i].Path < m.Entries[j].Path
	})
}

// Compute returns the digest of the manifest's canonical encoding.
func (m *Manifest) Compute() (Digest, error) {
	m.sortEntries()
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	sum := sha256.Sum256(data)
	return Digest(hex.EncodeToString(sum[:])), nil
}
