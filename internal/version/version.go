// Package version holds build information, overridden at link time with
// -ldflags "-X github.com/dpshade/prompt-genie/internal/version.GitCommit=...".
package version

import "runtime"

var (
	// GitRelease is the release tag the binary was built from
	GitRelease = "0.1.0"
	// GitCommit is the commit hash the binary was built from
	GitCommit = "unknown"
	// GitCommitDate is the date of GitCommit
	GitCommitDate = "unknown"
	// GoInfo describes the toolchain and platform
	GoInfo = runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH
)
