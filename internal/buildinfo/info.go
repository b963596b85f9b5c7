package buildinfo

import "fmt"

// Set via ldflags by the release build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String is the --version line.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}

// UserAgent identifies pennywise to the Google APIs it calls.
func UserAgent() string {
	return "pennywise/" + Version
}
