package main

import "runtime/debug"

// version is stamped at release time with -ldflags "-X main.version=vX.Y.Z".
var version = ""

// getVersion prefers the stamped version, then the module version recorded
// by go install, and reports "dev" for local builds.
func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}
