package buildinfo

import "fmt"

// Set with -ldflags "-X github.com/aalvaropc/readprep/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func String() string {
	return fmt.Sprintf("readprep %s (commit=%s, date=%s)", Version, Commit, Date)
}
