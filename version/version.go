// Package version reports the version of the famiscope build.
package version

import "runtime/debug"

// Version can be set at build time with:
// go build -ldflags "-X github.com/famiscope/famiscope/version.Version=$(git describe --dirty)"
var Version string

// Revision is the short VCS revision the binary was built from, with a
// "-dirty" suffix for modified trees, or "" when unknown.
var Revision = func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	revision, dirty := "", false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value[:min(7, len(setting.Value))]
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if revision != "" && dirty {
		revision += "-dirty"
	}
	return revision
}()

// String returns Version if it was set at build time, the VCS revision
// otherwise, and "dev" when neither is known.
func String() string {
	switch {
	case Version != "":
		return Version
	case Revision != "":
		return Revision
	}
	return "dev"
}
