package version

// Build info, set via -ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
)
