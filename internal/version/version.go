package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// Software returns the generating-software string written into LAS
// headers. LAS reserves 32 bytes for it.
func Software() string {
	s := "lvx-convert " + Version
	if len(s) > 32 {
		s = s[:32]
	}
	return s
}

// String describes the build for -version output.
func String() string {
	return fmt.Sprintf("lvx-convert %s (%s, built %s)", Version, GitSHA, BuildTime)
}
