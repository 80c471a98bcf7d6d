// Package version provides build-time version information for doccomments.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables set via ldflags.
// Example: go build -ldflags="-X github.com/ericfisherdev/doccomments/internal/version.Version=v1.0.0"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Short returns the version string (e.g., "v1.2.3" or "dev").
func Short() string {
	return Version
}

// Info returns a single-line version string with commit and build info.
func Info() string {
	commit := Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("doccomments %s (commit: %s, built: %s, go: %s)",
		Version, commit, BuildDate, runtime.Version())
}

// UserAgent identifies outbound GitHub API requests.
func UserAgent() string {
	return "doccomments/" + Version
}
