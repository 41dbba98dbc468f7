package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X github.com/grovetools/uptask/version.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Info describes the running uptask binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo returns the build information of the running binary.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders the info as aligned "key: value" lines.
func (i Info) String() string {
	return fmt.Sprintf(
		"uptask %s\n  Commit:  %s\n  Built:   %s\n  Go:      %s\n  Arch:    %s",
		i.Version, i.Commit, i.BuildDate, i.GoVersion, i.Platform,
	)
}
