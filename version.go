package duneblend

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the release of the library and the CLI.
var Version = strings.TrimSpace(version)
