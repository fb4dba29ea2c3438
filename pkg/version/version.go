// Package version reports which patclust binary is running.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Release builds stamp these with
// -ldflags "-X github.com/Aman-CERP/patclust/pkg/version.Version=v1.2.0".
// Unset values are filled from the build info "go install" embeds.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

const unknown = "unknown"

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Dirty     bool   `json:"dirty,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// Get returns the version information of the running binary.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info = merge(info, bi)
	}
	return info.withDefaults()
}

// merge completes the stamped values with the module version and the VCS
// settings. Stamped values win.
func merge(info Info, bi *debug.BuildInfo) Info {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

func (i Info) withDefaults() Info {
	if len(i.Commit) > 12 {
		i.Commit = i.Commit[:12]
	}
	if i.Commit == "" {
		i.Commit = unknown
	}
	if i.Date == "" {
		i.Date = unknown
	}
	return i
}

// String renders the information on one line.
func (i Info) String() string {
	commit := i.Commit
	if i.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("patclust %s (commit: %s, built: %s, go: %s, %s/%s)",
		i.Version, commit, i.Date, i.GoVersion, i.OS, i.Arch)
}

// String is Get().String().
func String() string {
	return Get().String()
}

// Short returns the version alone.
func Short() string {
	return Get().Version
}
