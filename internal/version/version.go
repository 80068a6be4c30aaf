// Package version holds build metadata injected at link time via -ldflags.
package version

var (
	// Version is the semantic version of the build
	Version = "dev"
	// CommitSHA is the git commit the binary was built from
	CommitSHA = "unknown"
	// BuildDate is the build timestamp in RFC 3339 format
	BuildDate = "unknown"
)
