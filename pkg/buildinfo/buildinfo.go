// Package buildinfo exposes the version stamped into the minutes binary.
package buildinfo

import (
	"runtime"
	"runtime/debug"
)

// These vars are set at build time via ldflags:
// -X github.com/otherjamesbrown/minutes/pkg/buildinfo.Version=v0.3.0
// -X github.com/otherjamesbrown/minutes/pkg/buildinfo.Commit=4f1c2ab
// -X github.com/otherjamesbrown/minutes/pkg/buildinfo.BuildTime=2026-10-01T09:00:00Z
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info holds build information for a binary.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns build info for the named binary. A "go install" build has no
// ldflags, so the module version is used when one is recorded.
func Get(name string) Info {
	info := Info{
		Name:      name,
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
	if info.Version == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
	}
	return info
}

// String returns a human-readable one-liner like "v0.3.0 (4f1c2ab, 2026-10-01T09:00:00Z)"
func String() string {
	return Version + " (" + Commit + ", " + BuildTime + ")"
}
