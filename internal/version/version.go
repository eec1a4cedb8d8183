//nolint:gochecknoglobals // version info set via ldflags
package version

// These variables are intended to be set via -ldflags at build time.
// Example:
//
//	-X github.com/bavix/bletrack/internal/version.Version=v0.3.0 \
//	-X github.com/bavix/bletrack/internal/version.BuildTime=2026-10-01T08:00:00Z
var (
	Version   = "dev"
	BuildTime = ""
)

func GetVersion() string { return Version }

func GetBuildTime() string { return BuildTime }

// UserAgent identifies the tracker in status files.
func UserAgent() string { return "bletrack/" + Version }
