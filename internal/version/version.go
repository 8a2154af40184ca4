// Package version exposes build metadata stamped in with -ldflags.
package version

import "runtime"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the metadata for `voicesearch version`.
func String() string {
	return "voicesearch " + Version + " (commit=" + Commit + ", date=" + Date + ", go=" + runtime.Version() + ")"
}

// UserAgent identifies this build to the search service.
func UserAgent() string {
	return "voicesearch/" + Version
}
