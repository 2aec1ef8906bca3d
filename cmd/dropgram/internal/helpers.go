package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
)

// GetConfigPath returns the default config location.
func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".dropgram", "config.json")
}

// FormatVersion returns the version string with optional git commit.
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info.
func FormatBuildInfo() (string, string) {
	build := buildTime
	return build, runtime.Version()
}

// GetVersion returns the version string.
func GetVersion() string {
	return version
}
