// Package version exposes the coursedex build metadata set by -ldflags "-X".
package version

//nolint:revive // overwritten at link time
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for logs, e.g. "v1.2.0 (abc123, 2026-10-17)".
func String() string {
	return Version + " (" + Commit + ", " + Date + ")"
}
