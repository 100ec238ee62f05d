package version

import "fmt"

// Populated at build time via -ldflags.
var (
	// Version is the semantic version or git describe result.
	Version = "dev"
	// GitCommit is the short git commit hash for this build.
	GitCommit = "unknown"
)

// String returns a human readable version summary.
func String() string {
	return fmt.Sprintf("cagefs %s (commit %s)", Version, GitCommit)
}
