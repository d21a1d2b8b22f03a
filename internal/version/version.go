// Package version provides build-time version information.
//
//	go build -ldflags "-X jp-ocr/internal/version.Version=1.2.0 \
//	  -X jp-ocr/internal/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import "fmt"

var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the build info on one line.
func String() string {
	return fmt.Sprintf("v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
}
