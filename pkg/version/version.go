// Package version holds build metadata injected at link time, e.g.
//
//	go build -ldflags "-X github.com/Sumatoshi-tech/dsmaint/pkg/version.Version=v1.2.0"
package version

import "fmt"

// Build metadata. Overridden with -ldflags -X.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the metadata as "v1.2.0 (commit: abc123, built: 2024-01-01)".
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
