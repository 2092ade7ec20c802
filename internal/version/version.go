// Package version holds build metadata injected via -ldflags.
package version

// Version is the application version. Overridden at build time with
// -ldflags "-X github.com/kohlkopf/kohlkopf/internal/version.Version=1.2.3".
var Version = "dev"
