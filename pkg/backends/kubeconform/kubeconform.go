// Package kubeconform exports the kubeconform binary. Its release
// archives keep the binary at the archive root, so the default exe-path
// heuristic applies.
package kubeconform

import (
	"context"
	"fmt"
	"path"

	"github.com/quiver-build/quiver/pkg/download"
	"github.com/quiver-build/quiver/pkg/export"
	"github.com/quiver-build/quiver/pkg/types"
)

const (
	ToolName = "kubeconform"

	defaultVersion     = "0.6.7"
	defaultURLTemplate = "https://github.com/yannh/kubeconform/releases/download/v{version}/kubeconform-{os}-{arch}.tar.gz"
)

// Tool marks kubeconform as exportable.
type Tool struct {
	cfg types.ToolConfig
}

func (t *Tool) Name() string {
	return ToolName
}

func (t *Tool) Version() string {
	return versionOf(t.cfg)
}

func (t *Tool) Request(cfg *types.AppConfig) (export.Request, error) {
	tc := cfg.ToolFor(ToolName)
	platform := download.CurrentPlatform()
	return &Request{
		Version:     versionOf(tc),
		URLTemplate: urlTemplateOf(tc),
		SHA256:      tc.SHA256[platform.String()],
		Resolve:     resolveOf(tc),
		Platform:    platform,
	}, nil
}

// Request carries everything needed to locate one kubeconform release.
type Request struct {
	Version     string
	URLTemplate string
	SHA256      string
	Resolve     string
	Platform    download.Platform
}

func (r *Request) ToolName() string {
	return ToolName
}

// Register wires the kubeconform tool and its export handler into the registry.
func Register(reg *export.Registry, dl *download.Downloader, cfg *types.AppConfig) {
	reg.RegisterTool(&Tool{cfg: cfg.ToolFor(ToolName)})
	reg.RegisterHandler(ToolName, func(ctx context.Context, req export.Request, env *export.Environment) (export.Results, error) {
		r, ok := req.(*Request)
		if !ok {
			return export.Results{}, fmt.Errorf("unexpected request type %T for kubeconform", req)
		}

		d, err := dl.Fetch(ctx, download.Spec{
			Tool:        ToolName,
			Version:     r.Version,
			URLTemplate: r.URLTemplate,
			SHA256:      r.SHA256,
			Platform:    r.Platform,
		})
		if err != nil {
			return export.Results{}, err
		}

		manifest, err := env.Store.Manifest(d)
		if err != nil {
			return export.Results{}, err
		}
		exePath, err := download.DefaultExePath(manifest, ToolName)
		if err != nil {
			return export.Results{}, err
		}

		return export.ResultsOf(export.Result{
			Description: fmt.Sprintf("kubeconform %s", r.Version),
			RelDir:      path.Join(ToolName, r.Resolve),
			Digest:      d,
			Resolve:     r.Resolve,
			Binaries: []export.Binary{
				{Name: ToolName, PathInExport: exePath},
			},
		}), nil
	})
}

func versionOf(tc types.ToolConfig) string {
	if tc.Version != "" {
		return tc.Version
	}
	return defaultVersion
}

func urlTemplateOf(tc types.ToolConfig) string {
	if tc.URLTemplate != "" {
		return tc.URLTemplate
	}
	return defaultURLTemplate
}

func resolveOf(tc types.ToolConfig) string {
	if tc.Resolve != "" {
		return tc.Resolve
	}
	return versionOf(tc)
}
