package buildinfo

import "strings"

// These variables are intended to be set via -ldflags at build time:
//
//	-X 'github.com/m3rciful/wordbot/core/buildinfo.Version=v1.2.3'
//	-X 'github.com/m3rciful/wordbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/wordbot/core/buildinfo.Date=2025-08-30T12:00:00Z'
var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// Short renders version and commit as "v1.2.3 (abcdef0)" for user-facing replies.
func Short() string {
	v := strings.TrimSpace(Version)
	if v == "" {
		v = "dev"
	}
	c := strings.TrimSpace(Commit)
	if c == "" {
		return v
	}
	if len(c) > 7 {
		c = c[:7]
	}
	return v + " (" + c + ")"
}
