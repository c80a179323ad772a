// Package version exposes the build metadata stamped into the elemdex binary.
//
// Version, Commit, and Date are variables rather than constants so release
// builds can overwrite them:
//
//	go build -ldflags "-X .../pkg/version.Version=v1.2.0 ..."
//
// An unstamped build reports "dev".
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"

	// Commit is the git revision the binary was built from.
	Commit = "unknown"

	// Date is the RFC3339 build timestamp.
	Date = "unknown"
)

// GoVersion reports the toolchain that compiled the running binary.
var GoVersion = runtime.Version()

// BuildInfo carries the full build metadata for machine-readable output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetInfo assembles a BuildInfo for the running binary, including the
// target platform.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Short returns only the version tag.
func Short() string {
	return Version
}

// String renders the one-line human form used by `elemdex version`.
func String() string {
	return fmt.Sprintf("elemdex %s (commit: %s, built: %s, go: %s)",
		Version, Commit, Date, GoVersion)
}
