package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var raw string

// Version is the release of this build, read from the embedded VERSION file
var Version = strings.TrimSpace(raw)

// Get returns the current version of the application
func Get() string {
	return Version
}
