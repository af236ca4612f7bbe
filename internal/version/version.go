package version

import "fmt"

// Version is the pomosite release, set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/pomosite/internal/version.Version=v0.3.0".
var Version = "unknown"

// Build metadata, also set via ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the one-line version banner printed by the CLI.
func String() string {
	return fmt.Sprintf("pomosite %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
