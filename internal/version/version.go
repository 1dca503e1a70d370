// Package version holds the build version information for the valknut
// binary, injected via ldflags at build time.
package version

// Version is the release version.
var Version = "dev"

// Commit is the git commit hash.
var Commit = "none"

// Date is the build date.
var Date = "unknown"
