// Package version reports the build version of the itemsort binaries.
package version

import "runtime/debug"

var version = "dev"

// Version returns the module version from build info, or the value set via
// -ldflags "-X .../pkg/version.version=..." or Set.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
		return info.Main.Version
	}
	return version
}

// Set overrides the version when no build info is embedded.
func Set(v string) {
	if v != "" {
		version = v
	}
}

// UserAgent identifies outbound HTTP requests.
func UserAgent() string {
	return "itemsort/" + Version()
}
