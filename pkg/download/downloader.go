package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/quiver-build/quiver/pkg/common"
	"github.com/quiver-build/quiver/pkg/digest"
	"github.com/quiver-build/quiver/pkg/types"
)

const (
	defaultTimeout    = 2 * time.Minute
	defaultMaxRetries = 3
)

// Spec describes one versioned tool artifact to fetch.
type Spec struct {
	Tool        string
	Version     string
	URLTemplate string
	SHA256      string // expected hex digest of the archive, "" to skip verification
	Platform    Platform
}

// Downloader fetches tool archives into a local cache, optionally via a
// shared mirror, and snapshots the extracted tree into the digest store.
type Downloader struct {
	client     *resty.Client
	store      *digest.Store
	cacheDir   string
	maxRetries int
	mirror     ObjectStore
}

// NewDownloader creates a downloader from config. The mirror is attached
// only when enabled and fully configured.
func NewDownloader(cfg types.DownloadConfig, store *digest.Store) (*Downloader, error) {
	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(".quiver", "downloads")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create download cache: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	d := &Downloader{
		client:     resty.New().SetTimeout(timeout),
		store:      store,
		cacheDir:   cacheDir,
		maxRetries: maxRetries,
	}

	if cfg.Mirror.Enabled && cfg.Mirror.S3.IsConfigured() {
		mirror, err := NewS3Store(cfg.Mirror.S3)
		if err != nil {
			return nil, fmt.Errorf("create archive mirror: %w", err)
		}
		d.mirror = mirror
		log.Info().
			Str("bucket", cfg.Mirror.S3.Bucket).
			Msg("archive mirror enabled")
	}

	return d, nil
}

// SetMirror overrides the mirror store. Used for mirror-less tests.
func (d *Downloader) SetMirror(m ObjectStore) {
	d.mirror = m
}

// Fetch retrieves the artifact for spec, extracts it, and returns the
// digest of the extracted tree. Archives are cached by file name, so
// repeated exports of a pinned version hit the network at most once.
func (d *Downloader) Fetch(ctx context.Context, spec Spec) (digest.Digest, error) {
	if _, err := semver.NewVersion(spec.Version); err != nil {
		return "", fmt.Errorf("invalid version %q for %s: %w", spec.Version, spec.Tool, err)
	}

	artifactURL := ExpandURL(spec.URLTemplate, spec.Version, spec.Platform)
	archivePath := filepath.Join(d.cacheDir, archiveName(spec, artifactURL))

	if _, err := os.Stat(archivePath); err != nil {
		if err := d.download(ctx, artifactURL, archivePath); err != nil {
			return "", err
		}
	} else {
		log.Debug().Str("tool", spec.Tool).Str("archive", archivePath).Msg("using cached archive")
	}

	if spec.SHA256 != "" {
		if err := verifySHA256(archivePath, spec.SHA256); err != nil {
			os.Remove(archivePath)
			return "", fmt.Errorf("verify %s: %w", spec.Tool, err)
		}
	}

	stagingDir := filepath.Join(os.TempDir(), common.GenerateStagingID())
	defer os.RemoveAll(stagingDir)

	if err := Extract(archivePath, stagingDir, spec.Tool); err != nil {
		return "", fmt.Errorf("extract %s: %w", spec.Tool, err)
	}

	return d.store.Snapshot(stagingDir)
}

// download fills archivePath from the mirror when possible, otherwise
// from the origin URL, back-filling the mirror after an origin fetch.
func (d *Downloader) download(ctx context.Context, artifactURL, archivePath string) error {
	key := mirrorKey(archivePath)

	if d.mirror != nil {
		if err := d.mirror.Get(ctx, key, archivePath); err == nil {
			log.Debug().Str("key", key).Msg("fetched archive from mirror")
			return nil
		} else {
			log.Debug().Err(err).Str("key", key).Msg("mirror miss")
		}
	}

	if err := d.fetchOrigin(ctx, artifactURL, archivePath); err != nil {
		return err
	}

	if d.mirror != nil {
		if err := d.mirror.Put(ctx, archivePath, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to back-fill archive mirror")
		}
	}

	return nil
}

func (d *Downloader) fetchOrigin(ctx context.Context, artifactURL, archivePath string) error {
	tmpPath := fmt.Sprintf("%s.partial-%s", archivePath, uuid.New().String()[:6])

	operation := func() error {
		start := time.Now()
		resp, err := d.client.R().
			SetContext(ctx).
			SetOutput(tmpPath).
			Get(artifactURL)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", artifactURL, err)
		}
		if resp.IsError() {
			err := fmt.Errorf("fetch %s: status %s", artifactURL, resp.Status())
			if resp.StatusCode() >= 400 && resp.StatusCode() < 500 {
				// Client errors will not heal on retry
				return backoff.Permanent(err)
			}
			return err
		}

		log.Info().
			Str("url", artifactURL).
			Dur("duration", time.Since(start)).
			Msg("downloaded tool archive")
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(d.maxRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, archivePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename archive: %w", err)
	}
	return nil
}

func verifySHA256(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash archive: %w", err)
	}

	actual := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("sha256 mismatch: expected %s, got %s", expected, actual)
	}
	return nil
}

// archiveName builds a cache file name that stays unique per tool,
// version and platform while keeping the origin's extension.
func archiveName(spec Spec, artifactURL string) string {
	base := "artifact"
	if u, err := url.Parse(artifactURL); err == nil && u.Path != "" {
		base = path.Base(u.Path)
	}
	return fmt.Sprintf("%s-%s-%s-%s", spec.Tool, spec.Version, spec.Platform, base)
}

func mirrorKey(archivePath string) string {
	return "archives/" + filepath.Base(archivePath)
}
