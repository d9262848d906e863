// Package version holds the relnotes build information.
// This is a separate package to avoid import cycles - it has no dependencies
// and can be safely imported from any package.
package version

import "fmt"

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// IsDevBuild returns true if running a development build (not a release).
func IsDevBuild() bool {
	return Version == "dev"
}

// String returns a one-line summary suitable for --version output.
func String() string {
	return fmt.Sprintf("relnotes %s (commit %s, built %s)", Version, ShortCommit(), BuildDate)
}

// ShortCommit returns the first 7 characters of the build commit.
func ShortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
