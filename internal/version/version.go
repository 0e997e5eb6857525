// Package version exposes the harness release version stamped at build
// time.
package version

// version is overridden at build time via -ldflags.
var version = "dev" //nolint:gochecknoglobals // ldflags requires package-level var

// String returns the version the binaries report.
func String() string {
	return version
}
