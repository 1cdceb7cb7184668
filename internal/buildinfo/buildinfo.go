// Package buildinfo carries values stamped in with -ldflags at build time.
package buildinfo

var (
	Version    = "dev"
	CommitHash = ""
	Branch     = ""
	BuildTime  = ""
	Dirty      = ""
)
