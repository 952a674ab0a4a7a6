// Package misc keeps build time information about the program.
package misc

import "runtime/debug"

// These are set with -ldflags "-X cssprune/misc.version=..." at build time.
var (
	appName = "cssprune"
	version = "dev"
	gitHash = ""
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

// GetGitHash returns the commit hash the binary was built from. When it was
// not provided at link time the VCS information recorded by the go tool is
// used.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
