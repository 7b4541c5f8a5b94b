package buildconfig

// Build-time variables injected via ldflags:
//
//	-X github.com/Harshitk-cp/curator/internal/buildconfig.version=v0.3.0
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

// Version returns the build version
func Version() string {
	return version
}

// Commit returns the git commit hash
func Commit() string {
	return commit
}

// VersionInfo returns full version information
func VersionInfo() map[string]string {
	info := map[string]string{
		"service": "curator",
		"version": version,
		"commit":  commit,
	}
	if buildDate != "" {
		info["build_date"] = buildDate
	}
	return info
}
