package types

import (
	"time"
)

// AppConfig is the root configuration for quiver
type AppConfig struct {
	DebugMode  bool `key:"debugMode" json:"debug_mode"`
	PrettyLogs bool `key:"prettyLogs" json:"pretty_logs"`

	// Backends lists the backend identifiers activated for this workspace.
	// A tool whose backend is not listed here is never considered for export.
	Backends []string `key:"backends" json:"backends"`

	Dist     DistConfig            `key:"dist" json:"dist"`
	Store    StoreConfig           `key:"store" json:"store"`
	Download DownloadConfig        `key:"download" json:"download"`
	Tools    map[string]ToolConfig `key:"tools" json:"tools"`
	Scripts  []ScriptSetConfig     `key:"scripts" json:"scripts"`
}

// DistConfig controls where exports are materialized
type DistConfig struct {
	Dir string `key:"dir" json:"dir"` // defaults to "dist"
}

// StoreConfig configures the local digest store
type StoreConfig struct {
	Root          string `key:"root" json:"root"` // defaults to ".quiver/store"
	ManifestCache int    `key:"manifestCache" json:"manifest_cache"`
}

// DownloadConfig configures tool archive retrieval
type DownloadConfig struct {
	CacheDir   string        `key:"cacheDir" json:"cache_dir"` // defaults to ".quiver/downloads"
	Timeout    time.Duration `key:"timeout" json:"timeout"`
	MaxRetries int           `key:"maxRetries" json:"max_retries"`
	Mirror     MirrorConfig  `key:"mirror" json:"mirror"`
}

// MirrorConfig configures an optional S3 archive mirror consulted before
// the origin URL and back-filled after a successful origin fetch.
type MirrorConfig struct {
	Enabled bool     `key:"enabled" json:"enabled"`
	S3      S3Config `key:"s3" json:"s3"`
}

type S3Config struct {
	Bucket         string `key:"bucket" json:"bucket"`
	Region         string `key:"region" json:"region"`
	Endpoint       string `key:"endpoint" json:"endpoint"`
	AccessKey      string `key:"accessKey" json:"access_key"`
	SecretKey      string `key:"secretKey" json:"secret_key"`
	ForcePathStyle bool   `key:"forcePathStyle" json:"force_path_style"`
}

func (c S3Config) IsConfigured() bool {
	return c.Bucket != "" && c.Region != ""
}

// ToolConfig carries per-tool overrides. Every field is optional; the
// backend supplies defaults for anything left empty.
type ToolConfig struct {
	Version     string            `key:"version" json:"version"`
	Skip        bool              `key:"skip" json:"skip"`
	Resolve     string            `key:"resolve" json:"resolve"`
	URLTemplate string            `key:"urlTemplate" json:"url_template"`
	SHA256      map[string]string `key:"sha256" json:"sha256"` // keyed by "<os>-<arch>"
}

// ScriptSetConfig defines a local script tree exported by the scripts backend
type ScriptSetConfig struct {
	Name     string            `key:"name" json:"name"`
	Dir      string            `key:"dir" json:"dir"`
	Binaries map[string]string `key:"binaries" json:"binaries"` // link name -> path within Dir
}

// ToolFor returns the override block for a tool, or a zero value when the
// config has none.
func (c *AppConfig) ToolFor(name string) ToolConfig {
	if c.Tools == nil {
		return ToolConfig{}
	}
	return c.Tools[name]
}

// BackendEnabled reports whether a backend identifier is activated.
func (c *AppConfig) BackendEnabled(id string) bool {
	for _, b := range c.Backends {
		if b == id {
			return true
		}
	}
	return false
}
