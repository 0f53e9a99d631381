// Package version reports the build version of rulecat.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const devRevision = "unknown"

var (
	Version   string // Set via ldflags.
	Branch    string
	BuildUser string
	BuildDate string

	Revision  = readRevision(debug.ReadBuildInfo)
	GoVersion = runtime.Version()
	GoOS      = runtime.GOOS
	GoArch    = runtime.GOARCH
)

// GetVersion returns the ldflags version, falling back to the VCS revision.
func GetVersion() string {
	if Version != "" {
		return Version
	}

	return Revision
}

// String describes the build in one line, e.g. for `rulecat --version`.
func String() string {
	s := GetVersion()
	if Version != "" && Revision != devRevision {
		s += " (" + Revision + ")"
	}

	s += fmt.Sprintf(" %s %s/%s", GoVersion, GoOS, GoArch)
	if BuildDate != "" {
		s += " built " + BuildDate
	}

	return s
}

// readRevision returns the short VCS revision recorded in the build info,
// suffixed with "-dirty" for modified trees.
func readRevision(read func() (*debug.BuildInfo, bool)) string {
	buildInfo, ok := read()
	if !ok {
		return devRevision
	}

	var (
		rev      = devRevision
		modified bool
	)

	for _, v := range buildInfo.Settings {
		switch v.Key {
		case "vcs.revision":
			rev = v.Value[:min(7, len(v.Value))]

		case "vcs.modified":
			modified = v.Value == "true"
		}
	}

	if modified {
		return rev + "-dirty"
	}

	return rev
}
