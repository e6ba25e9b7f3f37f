// Package version provides build information for the application.
package version

import (
	"fmt"
	"runtime"
)

// These variables are set during build time via ldflags:
//
//	-ldflags "-X github.com/goclaw/trafficlight/pkg/version.Version=v1.2.3"
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GoVersion = runtime.Version()
)

// Info returns a map with all version information.
func Info() map[string]string {
	return map[string]string{
		"version":   Version,
		"buildTime": BuildTime,
		"gitCommit": GitCommit,
		"goVersion": GoVersion,
	}
}

// String returns a one-line description used by --version.
func String() string {
	return fmt.Sprintf("trafficlight %s (commit %s, built %s, %s)", Version, GitCommit, BuildTime, GoVersion)
}
