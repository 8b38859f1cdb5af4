// Package version reports build information for the famicore executable.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

// String returns a one-line version description. Development builds pick
// up the VCS revision from the embedded build info when available.
func String() string {
	v := Version
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
					v = "dev-" + setting.Value[:7]
					break
				}
			}
		}
	}
	return fmt.Sprintf("famicore %s (%s, %s/%s)", v, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
