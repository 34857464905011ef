package helm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiver-build/quiver/pkg/download"
	"github.com/quiver-build/quiver/pkg/types"
)

func TestExePathOverridesDefaultHeuristic(t *testing.T) {
	// Helm archives bundle README and LICENSE next to the binary, so the
	// backend pins the exact in-tree path per platform.
	assert.Equal(t, "linux-amd64/helm", ExePath("3.14.4", download.Platform{OS: "linux", Arch: "amd64"}))
	assert.Equal(t, "darwin-arm64/helm", ExePath("3.14.4", download.Platform{OS: "darwin", Arch: "arm64"}))
}

func TestRequestUsesConfigOverrides(t *testing.T) {
	platform := download.CurrentPlatform()
	cfg := &types.AppConfig{
		Tools: map[string]types.ToolConfig{
			ToolName: {
				Version:     "3.15.0",
				Resolve:     "infra",
				URLTemplate: "https://mirror.example.com/helm-{version}-{os}-{arch}.tar.gz",
				SHA256:      map[string]string{platform.String(): "abc123"},
			},
		},
	}

	tool := &Tool{cfg: cfg.ToolFor(ToolName)}
	assert.Equal(t, "3.15.0", tool.Version())

	req, err := tool.Request(cfg)
	require.NoError(t, err)

	helmReq, ok := req.(*Request)
	require.True(t, ok)
	assert.Equal(t, "3.15.0", helmReq.Version)
	assert.Equal(t, "infra", helmReq.Resolve)
	assert.Equal(t, "https://mirror.example.com/helm-{version}-{os}-{arch}.tar.gz", helmReq.URLTemplate)
	assert.Equal(t, "abc123", helmReq.SHA256)
}

func TestRequestDefaults(t *testing.T) {
	tool := &Tool{}
	req, err := tool.Request(&types.AppConfig{})
	require.NoError(t, err)

	helmReq := req.(*Request)
	assert.Equal(t, defaultVersion, helmReq.Version)
	assert.Equal(t, defaultURLTemplate, helmReq.URLTemplate)
	// Without an explicit resolve, the version keeps destinations unique
	assert.Equal(t, defaultVersion, helmReq.Resolve)
}
