// Package version holds the build version, overridable at link time via
// -ldflags "-X github.com/envhound/envhound/pkg/version.Version=...".
package version

var Version = "dev"
