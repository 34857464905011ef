package download

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform identifies the os/arch pair a tool artifact is built for.
// Values follow GOOS/GOARCH naming.
type Platform struct {
	OS   string
	Arch string
}

// CurrentPlatform returns the platform of the running process.
func CurrentPlatform() Platform {
	return Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

func (p Platform) String() string {
	return fmt.Sprintf("%s-%s", p.OS, p.Arch)
}

// ExpandURL substitutes {version}, {os} and {arch} in a URL template.
func ExpandURL(template, version string, p Platform) string {
	return strings.NewReplacer(
		"{version}", version,
		"{os}", p.OS,
		"{arch}", p.Arch,
	).Replace(template)
}
